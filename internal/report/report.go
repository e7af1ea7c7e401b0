// Package report exports a finished run to disk.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"surge/internal/runner"
	"surge/internal/stats"
)

// Summary is the JSON document written to <prefix>_summary.json.
type Summary struct {
	RunID       string    `json:"run_id,omitempty"`
	Target      string    `json:"target"`
	Workers     int       `json:"workers"`
	DelayMs     float64   `json:"delay_ms"`
	MaxRequests int       `json:"max_requests"` // 0 is unlimited
	StartedAt   time.Time `json:"started_at"`
	ElapsedSec  float64   `json:"elapsed_seconds"`

	TotalRequests uint64  `json:"total_requests"`
	Success       uint64  `json:"success"`
	Failure       uint64  `json:"failure"`
	Rate          float64 `json:"requests_per_second"`
	SuccessRate   float64 `json:"success_rate_percent"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MinLatencyMs float64 `json:"min_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P90LatencyMs float64 `json:"p90_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
}

func NewSummary(status runner.Status) Summary {
	snap := status.Stats
	return Summary{
		RunID:         status.RunID,
		Target:        status.Config.Target,
		Workers:       status.Config.Workers,
		DelayMs:       ms(status.Config.Delay),
		MaxRequests:   status.Config.MaxRequests,
		StartedAt:     snap.StartedAt,
		ElapsedSec:    snap.Elapsed.Seconds(),
		TotalRequests: snap.Total,
		Success:       snap.Success,
		Failure:       snap.Failure,
		Rate:          snap.Rate,
		SuccessRate:   snap.SuccessRate,
		AvgLatencyMs:  ms(snap.AvgLatency),
		MinLatencyMs:  ms(snap.MinLatency),
		MaxLatencyMs:  ms(snap.MaxLatency),
		P50LatencyMs:  ms(snap.P50Latency),
		P90LatencyMs:  ms(snap.P90Latency),
		P99LatencyMs:  ms(snap.P99Latency),
	}
}

func WriteSummaryJSON(s Summary, filename string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// WriteLatencyCSV writes one row per request in recording order.
func WriteLatencyCSV(latencies []time.Duration, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"sequence", "latency_ms"}); err != nil {
		return err
	}
	for i, l := range latencies {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(ms(l), 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Files are the paths Export writes.
type Files struct {
	Summary string
	Latency string
}

func FilesFor(prefix string) Files {
	return Files{
		Summary: prefix + "_summary.json",
		Latency: prefix + "_latency.csv",
	}
}

// Export writes both report files for prefix.
func Export(prefix string, status runner.Status, agg *stats.Aggregator) (Files, error) {
	files := FilesFor(prefix)
	if err := WriteSummaryJSON(NewSummary(status), files.Summary); err != nil {
		return files, fmt.Errorf("writing summary: %w", err)
	}
	if err := WriteLatencyCSV(agg.Latencies(), files.Latency); err != nil {
		return files, fmt.Errorf("writing latencies: %w", err)
	}
	return files, nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
