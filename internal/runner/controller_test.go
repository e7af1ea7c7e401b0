package runner

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/eventlog"
)

func newTestController(exec Requester) *Controller {
	return NewController(Options{
		Executor: exec,
		Logger:   zerolog.Nop(),
	})
}

func countMessages(log *eventlog.Log, substr string) int {
	n := 0
	for _, e := range log.Entries() {
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func waitForState(t *testing.T, c *Controller, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State() == want }, 5*time.Second, time.Millisecond)
}

func TestController_EmptyTargetIsRejected(t *testing.T) {
	c := newTestController(&fakeRequester{})

	err := c.Start(Config{Workers: 1, MaxRequests: 5})

	assert.ErrorIs(t, err, ErrEmptyTarget)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 1, c.Log().Len())
	assert.Equal(t, 1, c.Log().Count(eventlog.Error))
	assert.Zero(t, c.Stats().Total())
}

func TestController_InvalidWorkerCountIsRejected(t *testing.T) {
	c := newTestController(&fakeRequester{})

	err := c.Start(Config{Target: "http://x", Workers: 0, MaxRequests: 5})

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 1, c.Log().Count(eventlog.Error))
}

func TestController_StopsItselfAtBudget(t *testing.T) {
	c := newTestController(&fakeRequester{latency: time.Millisecond})

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 3, MaxRequests: 10}))
	waitForState(t, c, Stopped)
	c.Wait()

	total := c.Stats().Total()
	assert.GreaterOrEqual(t, total, uint64(10))
	assert.LessOrEqual(t, total, uint64(12))
	assert.Equal(t, 1, countMessages(c.Log(), "Reached maximum requests limit (10)"))
	assert.Equal(t, 1, countMessages(c.Log(), "=== Final Statistics ==="))
	assert.Zero(t, countMessages(c.Log(), "Run stopped by user"))
	assert.Zero(t, c.Status().ActiveWorkers)
}

func TestController_RejectsStartWhileRunning(t *testing.T) {
	req := &fakeRequester{block: make(chan struct{})}
	c := newTestController(req)

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1}))
	err := c.Start(Config{Target: "http://y", Workers: 1})
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, Running, c.State())

	c.Stop()
	close(req.block)
	c.Wait()
}

func TestController_StopDoesNotWaitForInFlightRequest(t *testing.T) {
	req := &fakeRequester{block: make(chan struct{})}
	c := newTestController(req)

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1}))
	require.Eventually(t, func() bool { return req.inflight.Load() == 1 }, time.Second, time.Millisecond)

	assert.True(t, c.Stop())
	assert.Equal(t, Stopped, c.State())
	assert.Equal(t, 1, countMessages(c.Log(), "Run stopped by user"))

	close(req.block)
	c.Wait()

	assert.Equal(t, int64(1), req.calls.Load(), "no new request after stop")
	assert.Equal(t, uint64(1), c.Stats().Total(), "the in-flight outcome still counts")
}

func TestController_StopIsIdempotent(t *testing.T) {
	c := newTestController(&fakeRequester{})
	assert.False(t, c.Stop())

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 2, Delay: time.Hour}))
	assert.True(t, c.Stop())
	assert.False(t, c.Stop())
	c.Wait()

	assert.Equal(t, 1, countMessages(c.Log(), "=== Final Statistics ==="))
}

func TestController_ElapsedFreezesAtStop(t *testing.T) {
	c := newTestController(&fakeRequester{})

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1, Delay: time.Hour}))
	c.Stop()
	c.Wait()

	first := c.Stats().Elapsed()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, first, c.Stats().Elapsed())
}

func TestController_ResetClearsStatistics(t *testing.T) {
	c := newTestController(&fakeRequester{})

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 5, MaxRequests: 50}))
	waitForState(t, c, Stopped)
	c.Wait()
	require.GreaterOrEqual(t, c.Stats().Total(), uint64(50))

	c.Reset()

	assert.Equal(t, Idle, c.State())
	snap := c.Stats().Snapshot()
	assert.Zero(t, snap.Total)
	assert.Zero(t, snap.Success)
	assert.Zero(t, snap.Failure)
	assert.Zero(t, snap.Elapsed)
	assert.Zero(t, snap.Rate)
	assert.Zero(t, snap.AvgLatency)
	assert.Zero(t, snap.SuccessRate)

	entries := c.Log().Entries()
	assert.Equal(t, "Statistics reset", entries[len(entries)-1].Message)
}

func TestController_ResetDiscardsLateOutcomes(t *testing.T) {
	req := &fakeRequester{block: make(chan struct{})}
	c := newTestController(req)

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1}))
	require.Eventually(t, func() bool { return req.inflight.Load() == 1 }, time.Second, time.Millisecond)

	c.Reset()
	close(req.block)
	c.Wait()

	assert.Equal(t, Idle, c.State())
	assert.Zero(t, c.Stats().Total())
	assert.Zero(t, countMessages(c.Log(), "Request #"))
}

func TestController_RestartUsesFreshStatistics(t *testing.T) {
	c := newTestController(&fakeRequester{})

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1, MaxRequests: 3}))
	waitForState(t, c, Stopped)
	c.Wait()

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1, MaxRequests: 2}))
	waitForState(t, c, Stopped)
	c.Wait()

	assert.Equal(t, uint64(2), c.Stats().Total())
}

func TestController_AllFailuresAgainstUnreachableTarget(t *testing.T) {
	c := newTestController(&fakeRequester{fail: true})

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 2, MaxRequests: 20}))
	waitForState(t, c, Stopped)
	c.Wait()

	snap := c.Stats().Snapshot()
	assert.Zero(t, snap.Success)
	assert.Equal(t, snap.Total, snap.Failure)
	assert.Zero(t, snap.SuccessRate)
	assert.Equal(t, int(snap.Total), countMessages(c.Log(), "| Error: connection refused |"))
}

func TestController_PublishesStatusUpdates(t *testing.T) {
	c := newTestController(&fakeRequester{})

	require.NoError(t, c.Start(Config{Target: "http://x", Workers: 1, MaxRequests: 1}))
	waitForState(t, c, Stopped)
	c.Wait()

	var last Status
	for done := false; !done; {
		select {
		case s := <-c.Updates():
			last = s
		default:
			done = true
		}
	}
	assert.Equal(t, Stopped, last.State)
	assert.NotEmpty(t, last.RunID)
	assert.Equal(t, uint64(1), last.Stats.Total)
}

func TestController_ClearLog(t *testing.T) {
	c := newTestController(&fakeRequester{})
	c.Log().Info("one")
	c.Log().Info("two")

	c.ClearLog()

	entries := c.Log().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Logs cleared", entries[0].Message)
}

func TestController_AgainstHTTPTarget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := newTestController(NewExecutor(ExecutorOptions{}))

	require.NoError(t, c.Start(Config{Target: server.URL + "/ok", Workers: 1, MaxRequests: 5}))
	waitForState(t, c, Stopped)
	c.Wait()

	snap := c.Stats().Snapshot()
	assert.Equal(t, uint64(5), snap.Total)
	assert.Equal(t, 100.0, snap.SuccessRate)
	assert.GreaterOrEqual(t, snap.MinLatency, 10*time.Millisecond)
	assert.LessOrEqual(t, snap.MinLatency, snap.AvgLatency)
	assert.LessOrEqual(t, snap.AvgLatency, snap.MaxLatency)
	assert.Equal(t, 5, countMessages(c.Log(), "| Status: 200 |"))
	last, ok := c.Stats().LastOutcome()
	require.True(t, ok)
	assert.Equal(t, int64(2), last.ContentLength)
}

