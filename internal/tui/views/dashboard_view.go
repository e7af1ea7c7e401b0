package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"surge/internal/runner"
	"surge/internal/stats"
	"surge/internal/tui/components"
	"surge/internal/tui/styles"
)

type DashboardView struct {
	Status   runner.Status
	Viewport viewport.Model
	Progress progress.Model
	Rate     components.Sparkline

	// per-second request counts for Rate
	lastSecond int
	lastTotal  uint64

	Width  int
	Height int
}

func NewDashboardView(width, height int) DashboardView {
	prog := progress.New(
		progress.WithGradient("#FF8700", "#04B575"),
		progress.WithWidth(max(width-10, 10)),
	)

	return DashboardView{
		Viewport: viewport.New(max(width-6, 0), max(height-2, 0)),
		Progress: prog,
		Rate:     components.NewSparkline(60, "Requests / second", styles.Value),
		Width:    width,
		Height:   height,
	}
}

func (m DashboardView) Update(msg tea.Msg) (DashboardView, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case runner.Status:
		m.observe(msg)
		if msg.Config.Budgeted() {
			cmds = append(cmds, m.Progress.SetPercent(budgetFraction(msg)))
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = max(msg.Width-10, 10)
		m.Viewport.Width = max(msg.Width-6, 0)
		m.Viewport.Height = max(msg.Height-2, 0)

	case progress.FrameMsg:
		newModel, cmd := m.Progress.Update(msg)
		if newModel, ok := newModel.(progress.Model); ok {
			m.Progress = newModel
		}
		cmds = append(cmds, cmd)
	}

	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// observe folds a status into the per-second chart. A new run starts a
// fresh chart.
func (m *DashboardView) observe(st runner.Status) {
	if st.RunID != m.Status.RunID {
		m.Rate.Reset()
		m.lastSecond = 0
		m.lastTotal = 0
	}
	m.Status = st

	sec := int(st.Stats.Elapsed.Seconds())
	if sec > m.lastSecond && st.Stats.Total >= m.lastTotal {
		m.Rate.Add(st.Stats.Total - m.lastTotal)
		m.lastSecond = sec
		m.lastTotal = st.Stats.Total
	}
}

func budgetFraction(st runner.Status) float64 {
	if !st.Config.Budgeted() {
		return 0
	}
	return min(float64(st.Stats.Total)/float64(st.Config.MaxRequests), 1)
}

func stateBadge(s runner.State) string {
	switch s {
	case runner.Running:
		return styles.StateRunning.Render(s.String())
	case runner.Stopped:
		return styles.StateStopped.Render(s.String())
	default:
		return styles.StateReady.Render(s.String())
	}
}

func (m DashboardView) View() string {
	st := m.Status
	snap := st.Stats
	s := strings.Builder{}

	target := st.Config.Target
	if target == "" {
		target = "no run yet"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.Title.Render("Surge"),
		lipgloss.NewStyle().MarginLeft(2).Render(stateBadge(st.State)),
		lipgloss.NewStyle().MarginLeft(2).Foreground(styles.ColorSubtle).Render(target),
	)
	s.WriteString(header)
	s.WriteString("\n\n")

	if st.Config.Budgeted() {
		s.WriteString(m.Progress.View())
		s.WriteString(styles.Subtle.Render(fmt.Sprintf("  %d / %d", snap.Total, st.Config.MaxRequests)))
		s.WriteString("\n\n")
	}

	// Row 1: Volume
	row1 := lipgloss.JoinHorizontal(lipgloss.Top,
		MakeCard("Elapsed", styles.Text.Render(stats.FormatElapsed(snap.Elapsed))),
		MakeCard("Total Requests", styles.Value.Render(fmt.Sprintf("%d", snap.Total))),
		MakeCard("Rate", styles.Value.Render(fmt.Sprintf("%.2f req/s", snap.Rate))),
		MakeCard("Workers", styles.Active.Render(fmt.Sprintf("%d / %d", st.ActiveWorkers, st.Config.Workers))),
	)
	s.WriteString(row1)
	s.WriteString("\n")

	// Row 2: Outcomes
	failStyle := styles.Text
	if snap.Failure > 0 {
		failStyle = styles.Error
	}
	row2 := lipgloss.JoinHorizontal(lipgloss.Top,
		MakeCard("Successful", styles.Success.Render(fmt.Sprintf("%d", snap.Success))),
		MakeCard("Failed", failStyle.Render(fmt.Sprintf("%d", snap.Failure))),
		MakeCard("Success Rate", styles.Value.Render(fmt.Sprintf("%.2f%%", snap.SuccessRate))),
		MakeCard("Last Status", styles.Text.Render(lastStatus(snap.Last))),
	)
	s.WriteString(row2)
	s.WriteString("\n")

	// Row 3: Latency
	row3 := lipgloss.JoinHorizontal(lipgloss.Top,
		MakeCard("Avg Latency", styles.Text.Render(stats.Millis(snap.AvgLatency))),
		MakeCard("Min Latency", styles.Text.Render(stats.Millis(snap.MinLatency))),
		MakeCard("Max Latency", styles.Warn.Render(stats.Millis(snap.MaxLatency))),
		MakeCard("P99 Latency", styles.Error.Render(stats.Millis(snap.P99Latency))),
	)
	s.WriteString(row3)
	s.WriteString("\n")

	// Row 4: Generator
	row4 := lipgloss.JoinHorizontal(lipgloss.Top,
		MakeCard("Host CPU", styles.Text.Render(fmt.Sprintf("%.1f%%", st.Host.HostCPUPercent))),
		MakeCard("Surge CPU", styles.Text.Render(fmt.Sprintf("%.1f%%", st.Host.ProcessCPUPercent))),
		MakeCard("Surge RSS", styles.Text.Render(fmt.Sprintf("%.1f MB", st.Host.RSSMegabytes()))),
		MakeCard("Goroutines", styles.Text.Render(fmt.Sprintf("%d", st.Host.Goroutines))),
	)
	s.WriteString(row4)
	s.WriteString("\n\n")

	s.WriteString(m.Rate.View())
	s.WriteString("\n")

	if last := snap.Last; last != nil {
		s.WriteString("\n")
		s.WriteString(styles.Subtle.Render("Last Response"))
		s.WriteString("\n")
		if last.Success {
			s.WriteString(fmt.Sprintf("Status %d in %s, %s bytes, worker %d\n",
				last.StatusCode, stats.Millis(last.Latency), last.LengthString(), last.WorkerID))
		} else {
			s.WriteString(styles.Error.Render(fmt.Sprintf("Error: %s (%s, worker %d)",
				truncate(last.Error, 70), stats.Millis(last.Latency), last.WorkerID)))
			s.WriteString("\n")
		}
	}

	m.Viewport.SetContent(s.String())
	return m.Viewport.View()
}

func lastStatus(o *stats.Outcome) string {
	switch {
	case o == nil:
		return "-"
	case o.Success:
		return fmt.Sprintf("%d", o.StatusCode)
	default:
		return "ERR"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func MakeCard(title, value string) string {
	return styles.Box.Width(20).Align(lipgloss.Center).Render(
		fmt.Sprintf("%s\n%s", styles.Subtle.Render(title), value),
	)
}
