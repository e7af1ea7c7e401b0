// Package cli runs a load test without the interactive dashboard.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"surge/internal/report"
	"surge/internal/runner"
	"surge/internal/stats"
)

// ProgressInterval is how often the progress line is redrawn.
const ProgressInterval = 200 * time.Millisecond

type Options struct {
	Out       io.Writer
	OutPrefix string // report files are written when set
}

// Run starts cfg on ctrl and blocks until the run stops itself or ctx is
// cancelled, then waits for in-flight requests and prints the summary.
func Run(ctx context.Context, ctrl *runner.Controller, cfg runner.Config, opts Options) error {
	out := opts.Out
	printHeader(out, cfg)

	if err := ctrl.Start(cfg); err != nil {
		return err
	}

	ticker := time.NewTicker(ProgressInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			ctrl.Stop()
			break loop
		case <-ctrl.Updates():
			// Drain updates
		case <-ticker.C:
			st := ctrl.Status()
			printProgress(out, st)
			if st.State != runner.Running {
				break loop
			}
		}
	}

	fmt.Fprintf(out, "\r%-100s", "Waiting for in-flight requests...")
	ctrl.Wait()

	st := ctrl.Status()
	printSummary(out, st)
	return handleAutoReport(out, opts.OutPrefix, st, ctrl.Stats())
}

func printHeader(out io.Writer, cfg runner.Config) {
	budget := "unlimited"
	if cfg.Budgeted() {
		budget = fmt.Sprintf("%d", cfg.MaxRequests)
	}
	fmt.Fprintf(out, "\nSTARTING SURGE RUN\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Target       : %s\n", cfg.Target)
	fmt.Fprintf(out, "Workers      : %d\n", cfg.Workers)
	fmt.Fprintf(out, "Delay        : %s\n", cfg.Delay)
	fmt.Fprintf(out, "Max Requests : %s\n", budget)
	fmt.Fprintf(out, "======================================================================\n\n")
}

func printProgress(out io.Writer, st runner.Status) {
	s := st.Stats
	bar := ""
	if st.Config.Budgeted() {
		pct := float64(s.Total) / float64(st.Config.MaxRequests)
		bar = fmt.Sprintf("%s %3.0f%% | ", progressBar(pct, 20), min(pct, 1)*100)
	}
	fmt.Fprintf(out, "\r%s%s | Workers: %d | RPS: %.1f | OK: %d | Err: %d | Avg: %s",
		bar,
		stats.FormatElapsed(s.Elapsed),
		st.ActiveWorkers,
		s.Rate,
		s.Success,
		s.Failure,
		stats.Millis(s.AvgLatency),
	)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(out io.Writer, st runner.Status) {
	s := st.Stats

	fmt.Fprintf(out, "\n\nRUN RESULTS\n")
	fmt.Fprintf(out, "======================================================================\n")
	fmt.Fprintf(out, "Total Runtime  : %s (%.2fs)\n", stats.FormatElapsed(s.Elapsed), s.Elapsed.Seconds())
	fmt.Fprintf(out, "Total Requests : %d\n", s.Total)
	fmt.Fprintf(out, "Successful     : %d\n", s.Success)
	fmt.Fprintf(out, "Failed         : %d\n", s.Failure)
	if s.Total > 0 {
		fmt.Fprintf(out, "Average Rate   : %.2f req/s\n", s.Rate)
		fmt.Fprintf(out, "Success Rate   : %.2f%%\n", s.SuccessRate)
		fmt.Fprintf(out, "\nRESPONSE TIMES\n")
		fmt.Fprintf(out, "   Min : %s\n", stats.Millis(s.MinLatency))
		fmt.Fprintf(out, "   Avg : %s\n", stats.Millis(s.AvgLatency))
		fmt.Fprintf(out, "   P50 : %s\n", stats.Millis(s.P50Latency))
		fmt.Fprintf(out, "   P90 : %s\n", stats.Millis(s.P90Latency))
		fmt.Fprintf(out, "   P99 : %s\n", stats.Millis(s.P99Latency))
		fmt.Fprintf(out, "   Max : %s\n", stats.Millis(s.MaxLatency))
	}
	fmt.Fprintf(out, "======================================================================\n")
}

func handleAutoReport(out io.Writer, prefix string, st runner.Status, agg *stats.Aggregator) error {
	if prefix == "" || st.Stats.Total == 0 {
		return nil
	}

	fmt.Fprintf(out, "\nGenerating reports with prefix: %s\n", prefix)
	files, err := report.Export(prefix, st, agg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reports saved to %s and %s\n", files.Summary, files.Latency)
	return nil
}
