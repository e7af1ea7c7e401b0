package runner

import (
	"context"
	"time"

	"surge/internal/stats"
)

// OutcomeFunc is told about every outcome after it has been recorded, with
// the run-wide sequence number it was given.
type OutcomeFunc func(o stats.Outcome, seq uint64)

// Worker issues one request at a time until stopped or the budget is spent.
type Worker struct {
	ID        int
	cfg       Config
	exec      Requester
	stats     *stats.Aggregator
	onOutcome OutcomeFunc
}

func NewWorker(id int, cfg Config, exec Requester, agg *stats.Aggregator, onOutcome OutcomeFunc) *Worker {
	return &Worker{
		ID:        id,
		cfg:       cfg,
		exec:      exec,
		stats:     agg,
		onOutcome: onOutcome,
	}
}

// Run loops until ctx is cancelled or the shared total reaches the budget.
// It returns true when it exited because of the budget.
//
// The budget check races with other workers, so a run may overshoot
// MaxRequests by up to one request per worker.
func (w *Worker) Run(ctx context.Context) bool {
	// stopping must not abort a request already on the wire
	reqCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			return false
		}
		if w.budgetSpent() {
			return true
		}

		out := w.exec.Execute(reqCtx, w.cfg.Target, w.ID)
		seq := w.stats.RecordOutcome(out)
		if w.onOutcome != nil {
			w.onOutcome(out, seq)
		}

		if !w.pause(ctx) {
			return false
		}
	}
}

func (w *Worker) budgetSpent() bool {
	return w.cfg.Budgeted() && w.stats.Total() >= uint64(w.cfg.MaxRequests)
}

// pause waits out the configured delay. It returns false if ctx was
// cancelled first.
func (w *Worker) pause(ctx context.Context) bool {
	if w.cfg.Delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(w.cfg.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
