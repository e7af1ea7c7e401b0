package runner

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Unlimited as MaxRequests disables the request budget.
const Unlimited = 0

var (
	ErrEmptyTarget    = errors.New("target is required")
	ErrAlreadyRunning = errors.New("a run is already in progress")
	ErrInvalidConfig  = errors.New("invalid run configuration")
)

// Config is fixed for the lifetime of one run.
type Config struct {
	Target      string
	Delay       time.Duration // pause between a worker's requests, may be zero
	Workers     int
	MaxRequests int // total across all workers, Unlimited for none
}

func (c Config) Validate() error {
	if c.Target == "" {
		return ErrEmptyTarget
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: worker count must be greater than 0", ErrInvalidConfig)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: delay cannot be negative", ErrInvalidConfig)
	}
	if c.MaxRequests < 0 {
		return fmt.Errorf("%w: max requests cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Budgeted reports whether the run stops itself after MaxRequests.
func (c Config) Budgeted() bool {
	return c.MaxRequests != Unlimited
}

func (c Config) budgetString() string {
	if !c.Budgeted() {
		return "unlimited"
	}
	return strconv.Itoa(c.MaxRequests)
}

// State is the run lifecycle.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Ready"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
