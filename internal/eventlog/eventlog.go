// Package eventlog keeps the bounded, timestamped activity log shown to users.
package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Category colours a log line in the presentation layer.
type Category string

const (
	Info    Category = "info"
	Success Category = "success"
	Error   Category = "error"
)

// DefaultCapacity is how many entries are retained before the oldest are dropped.
const DefaultCapacity = 500

type Entry struct {
	Time     time.Time
	Category Category
	Message  string
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// Log is a FIFO-capped log safe for concurrent writers. Each entry is also
// mirrored to a zerolog logger.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	logger   zerolog.Logger
	now      func() time.Time
}

func New(capacity int, logger zerolog.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *Log) Add(cat Category, format string, args ...any) Entry {
	e := Entry{
		Time:     l.now(),
		Category: cat,
		Message:  fmt.Sprintf(format, args...),
	}

	l.mu.Lock()
	if len(l.entries) >= l.capacity {
		// drop oldest first
		n := copy(l.entries, l.entries[len(l.entries)-l.capacity+1:])
		l.entries = l.entries[:n]
	}
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	switch cat {
	case Error:
		l.logger.Warn().Str("category", string(cat)).Msg(e.Message)
	default:
		l.logger.Info().Str("category", string(cat)).Msg(e.Message)
	}
	return e
}

func (l *Log) Info(format string, args ...any) Entry {
	return l.Add(Info, format, args...)
}

func (l *Log) Success(format string, args ...any) Entry {
	return l.Add(Success, format, args...)
}

func (l *Log) Error(format string, args ...any) Entry {
	return l.Add(Error, format, args...)
}

// Entries returns a copy, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.mu.Unlock()
}

// Count returns how many retained entries are of the given category.
func (l *Log) Count(cat Category) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.Category == cat {
			n++
		}
	}
	return n
}
