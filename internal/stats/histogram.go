package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyHistogram wraps hdrhistogram for percentile queries.
// It is not safe for concurrent use; the Aggregator guards it.
type LatencyHistogram struct {
	hist *hdrhistogram.Histogram
}

const (
	minTrackableUs = 1
	maxTrackableUs = int64(10 * time.Minute / time.Microsecond)
)

func NewLatencyHistogram() *LatencyHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(minTrackableUs, maxTrackableUs, 3)
	return &LatencyHistogram{hist: h}
}

// Record stores a latency with microsecond resolution. Values outside the
// trackable range are clamped rather than dropped.
func (h *LatencyHistogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minTrackableUs {
		us = minTrackableUs
	}
	if us > maxTrackableUs {
		us = maxTrackableUs
	}
	_ = h.hist.RecordValue(us)
}

// Quantile returns the latency at q (0-100), or 0 when empty.
func (h *LatencyHistogram) Quantile(q float64) time.Duration {
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(h.hist.ValueAtQuantile(q)) * time.Microsecond
}

func (h *LatencyHistogram) Count() int64 {
	return h.hist.TotalCount()
}
