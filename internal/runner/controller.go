package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"surge/internal/eventlog"
	"surge/internal/stats"
	"surge/internal/sysmon"
)

// HostSampler reports the generator's own resource usage.
type HostSampler interface {
	Sample() (sysmon.Sample, error)
}

// Status is pushed to the presentation layer on every change.
type Status struct {
	RunID         string
	State         State
	ActiveWorkers int
	Config        Config
	Stats         stats.Snapshot
	Host          sysmon.Sample
}

// StatusUpdateChan carries Status pushes to the presentation layer.
type StatusUpdateChan chan Status

type Options struct {
	Executor       Requester
	Logger         zerolog.Logger
	Log            *eventlog.Log // created when nil
	Sampler        HostSampler   // optional
	ReportInterval time.Duration // elapsed-time report cadence, 1s when zero
	Updates        StatusUpdateChan
}

type run struct {
	id     string
	cfg    Config
	stats  *stats.Aggregator
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	active atomic.Int32
}

// Controller owns the run lifecycle and the workers of the current run.
type Controller struct {
	mu sync.Mutex

	state   State
	stats   *stats.Aggregator
	current *run // nil when idle
	latest  *run // most recently started, kept for Wait
	host    sysmon.Sample

	exec     Requester
	logger   zerolog.Logger
	log      *eventlog.Log
	sampler  HostSampler
	interval time.Duration
	updates  StatusUpdateChan

	now func() time.Time
}

func NewController(opts Options) *Controller {
	if opts.Log == nil {
		opts.Log = eventlog.New(eventlog.DefaultCapacity, opts.Logger)
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = time.Second
	}
	if opts.Updates == nil {
		// Avoid nil panics if not provided
		opts.Updates = make(StatusUpdateChan, 100)
	}
	if opts.Executor == nil {
		opts.Executor = NewExecutor(ExecutorOptions{})
	}

	return &Controller{
		state:    Idle,
		stats:    stats.NewAggregator(time.Time{}),
		exec:     opts.Executor,
		logger:   opts.Logger,
		log:      opts.Log,
		sampler:  opts.Sampler,
		interval: opts.ReportInterval,
		updates:  opts.Updates,
		now:      time.Now,
	}
}

func (c *Controller) Updates() <-chan Status {
	return c.updates
}

func (c *Controller) Log() *eventlog.Log {
	return c.log
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns the statistics of the current run (empty when idle).
func (c *Controller) Stats() *stats.Aggregator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Start begins a new run with fresh statistics. A rejected configuration is
// logged and returned, and leaves the state untouched.
func (c *Controller) Start(cfg Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		c.log.Error("A run is already in progress")
		return ErrAlreadyRunning
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, ErrEmptyTarget) {
			c.log.Error("Please enter a target URL")
		} else {
			c.log.Error("Invalid configuration: %v", err)
		}
		return err
	}

	r := &run{
		id:    uuid.NewString(),
		cfg:   cfg,
		stats: stats.NewAggregator(c.now()),
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	c.state = Running
	c.stats = r.stats
	c.current = r
	c.latest = r

	c.log.Info("Starting run on %s with %d worker(s)", cfg.Target, cfg.Workers)
	c.log.Info("Configuration: %s delay, max %s requests", cfg.Delay, cfg.budgetString())
	c.logger.Info().
		Str("run", r.id).
		Str("target", cfg.Target).
		Int("workers", cfg.Workers).
		Dur("delay", cfg.Delay).
		Int("max_requests", cfg.MaxRequests).
		Msg("run started")

	r.active.Store(int32(cfg.Workers))
	for i := 0; i < cfg.Workers; i++ {
		w := NewWorker(i, cfg, c.exec, r.stats, func(o stats.Outcome, seq uint64) {
			c.recorded(r, o, seq)
		})
		r.group.Go(func() error {
			defer r.active.Add(-1)
			if w.Run(r.ctx) {
				c.budgetReached(r)
			}
			return nil
		})
	}

	go c.report(r)

	c.publishLocked()
	return nil
}

// Stop raises the stop signal for the current run. Workers exit at their next
// check point; requests already in flight are allowed to finish. It reports
// whether a running run was actually stopped.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Running {
		return false
	}
	c.log.Info("Run stopped by user")
	c.stopLocked()
	return true
}

// Reset stops a running run, then discards its statistics and returns to idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		c.log.Info("Run stopped by user")
		c.stopLocked()
	}

	c.stats = stats.NewAggregator(time.Time{})
	c.current = nil
	c.state = Idle

	c.log.Info("Statistics reset")
	c.publishLocked()
}

func (c *Controller) ClearLog() {
	c.log.Clear()
	c.log.Info("Logs cleared")
	c.publish()
}

// Wait blocks until every worker of the most recent run has exited.
func (c *Controller) Wait() {
	c.mu.Lock()
	r := c.latest
	c.mu.Unlock()

	if r != nil {
		_ = r.group.Wait()
	}
}

func (c *Controller) stopLocked() {
	r := c.current
	r.cancel()
	r.stats.MarkStopped(c.now())
	c.state = Stopped

	c.finalStatsLocked(r)
	c.publishLocked()
}

// budgetReached is called by every worker that saw the budget spent; only the
// first call while the run is still current and running has any effect.
func (c *Controller) budgetReached(r *run) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != r || c.state != Running {
		return
	}
	c.log.Success("Reached maximum requests limit (%d)", r.cfg.MaxRequests)
	c.stopLocked()
}

func (c *Controller) recorded(r *run, o stats.Outcome, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// the run was reset while this request was in flight
	if c.current != r {
		return
	}

	if o.Success {
		c.log.Success("Request #%d | Status: %d | Time: %s | Length: %s | Worker: %d",
			seq, o.StatusCode, stats.Millis(o.Latency), o.LengthString(), o.WorkerID)
	} else {
		c.log.Error("Request #%d | Error: %s | Time: %s | Worker: %d",
			seq, o.Error, stats.Millis(o.Latency), o.WorkerID)
	}
	c.publishLocked()
}

// report drives the periodic elapsed-time update until the run stops.
func (c *Controller) report(r *run) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			if c.sampler != nil {
				sample, err := c.sampler.Sample()
				if err != nil {
					c.logger.Debug().Err(err).Msg("host sample failed")
				}
				c.mu.Lock()
				c.host = sample
				c.mu.Unlock()
			}
			c.logger.Debug().
				Str("run", r.id).
				Str("elapsed", stats.FormatElapsed(r.stats.Elapsed())).
				Uint64("total", r.stats.Total()).
				Msg("tick")
			c.publish()
		}
	}
}

func (c *Controller) finalStatsLocked(r *run) {
	snap := r.stats.Snapshot()

	c.log.Info("=== Final Statistics ===")
	c.log.Info("Total Runtime: %.2f seconds", snap.Elapsed.Seconds())
	c.log.Info("Total Requests: %d", snap.Total)
	c.log.Info("Successful: %d", snap.Success)
	c.log.Info("Failed: %d", snap.Failure)
	if snap.Total > 0 {
		c.log.Info("Average Rate: %.2f req/s", snap.Rate)
		c.log.Info("Success Rate: %.2f%%", snap.SuccessRate)
	}

	c.logger.Info().
		Str("run", r.id).
		Uint64("total", snap.Total).
		Uint64("success", snap.Success).
		Uint64("failure", snap.Failure).
		Dur("elapsed", snap.Elapsed).
		Float64("rate", snap.Rate).
		Float64("success_rate", snap.SuccessRate).
		Dur("avg_latency", snap.AvgLatency).
		Dur("p99_latency", snap.P99Latency).
		Msg("run finished")
}

func (c *Controller) statusLocked() Status {
	s := Status{
		State: c.state,
		Stats: c.stats.Snapshot(),
		Host:  c.host,
	}
	if c.current != nil {
		s.RunID = c.current.id
		s.Config = c.current.cfg
		s.ActiveWorkers = int(c.current.active.Load())
	}
	return s
}

func (c *Controller) publish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked()
}

func (c *Controller) publishLocked() {
	// Non-blocking send
	select {
	case c.updates <- c.statusLocked():
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}
