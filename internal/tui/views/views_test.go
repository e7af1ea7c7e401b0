package views

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/eventlog"
	"surge/internal/runner"
	"surge/internal/stats"
)

func TestConfigView_RoundTripsConfig(t *testing.T) {
	in := runner.Config{Target: "http://h/x", Delay: 1500 * time.Millisecond, Workers: 3, MaxRequests: 40}
	v := NewConfigView(in)

	assert.Equal(t, in, v.GetConfig())
}

func TestConfigView_BadNumbersAreRejectedLater(t *testing.T) {
	v := NewConfigView(runner.Config{Target: "http://h"})
	v.Inputs[FieldDelay].SetValue("soon")
	v.Inputs[FieldWorkers].SetValue("many")
	v.Inputs[FieldMaxRequests].SetValue("")

	cfg := v.GetConfig()
	assert.Less(t, cfg.Delay, time.Duration(0))
	assert.Zero(t, cfg.Workers)
	assert.ErrorIs(t, cfg.Validate(), runner.ErrInvalidConfig)
}

func TestConfigView_TabCyclesFocus(t *testing.T) {
	v := NewConfigView(runner.Config{})
	require.Equal(t, FieldTarget, v.Focus)

	for _, want := range []int{FieldDelay, FieldWorkers, FieldMaxRequests, FieldTarget} {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyTab})
		assert.Equal(t, want, v.Focus)
	}

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, FieldMaxRequests, v.Focus)
	assert.NotEmpty(t, v.GetHelp())
}

func TestDashboardView_ChartsPerSecondCounts(t *testing.T) {
	d := NewDashboardView(120, 40)

	status := func(total uint64, elapsed time.Duration) runner.Status {
		return runner.Status{
			RunID:  "r1",
			State:  runner.Running,
			Config: runner.Config{Target: "http://h", Workers: 1, MaxRequests: 100},
			Stats:  stats.Snapshot{Total: total, Elapsed: elapsed},
		}
	}

	d, _ = d.Update(status(5, 500*time.Millisecond))
	d, _ = d.Update(status(12, 1100*time.Millisecond))
	d, _ = d.Update(status(20, 1500*time.Millisecond))
	d, _ = d.Update(status(30, 2100*time.Millisecond))

	assert.Equal(t, []uint64{12, 18}, d.Rate.Data)

	next := status(3, 1200*time.Millisecond)
	next.RunID = "r2"
	d, _ = d.Update(next)
	assert.Equal(t, []uint64{3}, d.Rate.Data, "a new run restarts the chart")
}

func TestDashboardView_RendersCards(t *testing.T) {
	d := NewDashboardView(120, 60)
	last := stats.Succeeded(201, 12*time.Millisecond, 42)
	d, _ = d.Update(runner.Status{
		State:  runner.Stopped,
		Config: runner.Config{Target: "http://h", Workers: 2},
		Stats:  stats.Snapshot{Total: 7, Success: 6, Failure: 1, SuccessRate: 85.71, Last: &last},
	})

	out := d.View()
	assert.Contains(t, out, "Stopped")
	assert.Contains(t, out, "Total Requests")
	assert.Contains(t, out, "85.71%")
	assert.Contains(t, out, "201")
}

func TestLogView_ShowsEntries(t *testing.T) {
	log := eventlog.New(10, zerolog.Nop())
	log.Info("Starting run")
	log.Error("Request #1 | Error: boom")

	v := NewLogView(100, 20)
	assert.Contains(t, v.View(), "No log entries yet")

	v.SetEntries(log.Entries())
	out := v.View()
	assert.Contains(t, out, "Starting run")
	assert.Contains(t, out, "Error: boom")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
}
