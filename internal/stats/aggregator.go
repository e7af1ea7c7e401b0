package stats

import (
	"sync"
	"time"
)

// Snapshot is a consistent, point-in-time view of a run's statistics.
type Snapshot struct {
	Total   uint64
	Success uint64
	Failure uint64

	Rate        float64 // requests per second over Elapsed
	SuccessRate float64 // percent

	AvgLatency time.Duration
	MinLatency time.Duration
	MaxLatency time.Duration
	P50Latency time.Duration
	P90Latency time.Duration
	P99Latency time.Duration

	StartedAt time.Time // zero when no run has started
	Elapsed   time.Duration

	Last *Outcome
}

// Aggregator holds the shared statistics of one run. Every mutation goes
// through RecordOutcome so the total == success + failure invariant is never
// observable in a torn state.
type Aggregator struct {
	mu sync.RWMutex

	total   uint64
	success uint64
	failure uint64

	latencies  []time.Duration
	latencySum time.Duration
	minLatency time.Duration
	maxLatency time.Duration
	hist       *LatencyHistogram

	last *Outcome

	startedAt time.Time
	stoppedAt time.Time

	now func() time.Time
}

// NewAggregator returns empty statistics. A zero startedAt means the run has
// not started (the idle state).
func NewAggregator(startedAt time.Time) *Aggregator {
	return &Aggregator{
		latencies: make([]time.Duration, 0, 1024),
		hist:      NewLatencyHistogram(),
		startedAt: startedAt,
		now:       time.Now,
	}
}

// RecordOutcome applies one outcome atomically and returns the run-wide
// sequence number of the request it describes.
func (a *Aggregator) RecordOutcome(o Outcome) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if o.Success {
		a.success++
	} else {
		a.failure++
	}

	// latency is measured whether or not a response arrived
	if len(a.latencies) == 0 || o.Latency < a.minLatency {
		a.minLatency = o.Latency
	}
	if o.Latency > a.maxLatency {
		a.maxLatency = o.Latency
	}
	a.latencies = append(a.latencies, o.Latency)
	a.latencySum += o.Latency
	a.hist.Record(o.Latency)

	last := o
	a.last = &last
	return a.total
}

// MarkStopped freezes Elapsed at t.
func (a *Aggregator) MarkStopped(t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stoppedAt.IsZero() {
		a.stoppedAt = t
	}
}

func (a *Aggregator) Total() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.total
}

// Counts returns total, success and failure from the same consistent state.
func (a *Aggregator) Counts() (total, success, failure uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.total, a.success, a.failure
}

func (a *Aggregator) StartedAt() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.startedAt
}

func (a *Aggregator) Elapsed() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.elapsedLocked()
}

// CurrentRate is totalCount / elapsed seconds, 0 when nothing has elapsed.
func (a *Aggregator) CurrentRate() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return rate(a.total, a.elapsedLocked())
}

func (a *Aggregator) AverageLatency() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.avgLocked()
}

func (a *Aggregator) MinLatency() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.minLatency
}

func (a *Aggregator) MaxLatency() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.maxLatency
}

// SuccessRatePercent is 100 * success / total, 0 when nothing was recorded.
func (a *Aggregator) SuccessRatePercent() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return successRate(a.success, a.total)
}

// LastOutcome returns a copy of the most recently recorded outcome.
func (a *Aggregator) LastOutcome() (Outcome, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return Outcome{}, false
	}
	return *a.last, true
}

// Latencies returns a copy of the latency samples in recording order.
func (a *Aggregator) Latencies() []time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]time.Duration, len(a.latencies))
	copy(out, a.latencies)
	return out
}

// Snapshot computes every derived metric under a single read lock.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	elapsed := a.elapsedLocked()
	s := Snapshot{
		Total:       a.total,
		Success:     a.success,
		Failure:     a.failure,
		Rate:        rate(a.total, elapsed),
		SuccessRate: successRate(a.success, a.total),
		AvgLatency:  a.avgLocked(),
		MinLatency:  a.minLatency,
		MaxLatency:  a.maxLatency,
		P50Latency:  a.hist.Quantile(50),
		P90Latency:  a.hist.Quantile(90),
		P99Latency:  a.hist.Quantile(99),
		StartedAt:   a.startedAt,
		Elapsed:     elapsed,
	}
	if a.last != nil {
		last := *a.last
		s.Last = &last
	}
	return s
}

func (a *Aggregator) elapsedLocked() time.Duration {
	if a.startedAt.IsZero() {
		return 0
	}
	end := a.stoppedAt
	if end.IsZero() {
		end = a.now()
	}
	return end.Sub(a.startedAt)
}

func (a *Aggregator) avgLocked() time.Duration {
	if len(a.latencies) == 0 {
		return 0
	}
	return a.latencySum / time.Duration(len(a.latencies))
}

func rate(total uint64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(total) / secs
}

func successRate(success, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(success) / float64(total)
}
