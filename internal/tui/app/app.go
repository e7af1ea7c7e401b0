package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"surge/internal/report"
	"surge/internal/runner"
	"surge/internal/tui/styles"
	"surge/internal/tui/views"
)

type ClearStatusMsg struct{}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// View Enum
type ViewID int

const (
	ViewConfig ViewID = iota
	ViewDashboard
	ViewLog
)

type StatusMsg runner.Status

type Model struct {
	Controller *runner.Controller

	// Report prefix for ctrl+p, a timestamped name when empty
	ExportPrefix string

	Width  int
	Height int

	CurrentView ViewID
	MenuItems   []string

	ConfigView views.ConfigView
	DashView   views.DashboardView
	LogView    views.LogView

	// Feedback
	StatusMsg string
}

func NewModel(ctrl *runner.Controller, initial runner.Config, exportPrefix string) Model {
	return Model{
		Controller:   ctrl,
		ExportPrefix: exportPrefix,
		CurrentView:  ViewConfig,
		MenuItems:    []string{"[1] Configure", "[2] Dashboard", "[3] Log"},
		ConfigView:   views.NewConfigView(initial),
		DashView:     views.NewDashboardView(0, 0),
		LogView:      views.NewLogView(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.ConfigView.Init(),
		waitForUpdate(m.Controller.Updates()),
	)
}

func waitForUpdate(sub <-chan runner.Status) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg(<-sub)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ClearStatusMsg:
		m.StatusMsg = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			m.Controller.Stop()
			return m, tea.Quit

		case "ctrl+d":
			m.CurrentView = ViewDashboard
			return m, nil

		case "ctrl+right":
			m.CurrentView = (m.CurrentView + 1) % 3
			return m, nil
		case "ctrl+left":
			m.CurrentView = (m.CurrentView + 2) % 3
			return m, nil

		case "ctrl+r":
			if err := m.Controller.Start(m.ConfigView.GetConfig()); err != nil {
				m.CurrentView = ViewLog
			} else {
				m.CurrentView = ViewDashboard
			}
			m.refresh()
			return m, nil

		case "ctrl+s":
			m.Controller.Stop()
			m.refresh()
			return m, nil

		case "ctrl+x":
			m.Controller.Reset()
			m.refresh()
			return m, nil

		case "ctrl+l":
			m.Controller.ClearLog()
			m.refresh()
			return m, nil

		case "ctrl+p":
			m.StatusMsg = m.export()
			return m, clearStatusCmd()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		content := tea.WindowSizeMsg{Width: m.Width, Height: m.Height - 7}

		m.ConfigView, _ = m.ConfigView.Update(content)
		m.DashView, _ = m.DashView.Update(content)
		m.LogView, _ = m.LogView.Update(content)
		return m, nil

	case StatusMsg:
		var c tea.Cmd
		m.DashView, c = m.DashView.Update(runner.Status(msg))
		cmds = append(cmds, c)
		m.LogView.SetEntries(m.Controller.Log().Entries())
		cmds = append(cmds, waitForUpdate(m.Controller.Updates()))
		return m, tea.Batch(cmds...)
	}

	// Forward everything else (keys that are not global, blink and frame
	// messages) to the active view.
	var defaultCmd tea.Cmd
	switch m.CurrentView {
	case ViewConfig:
		m.ConfigView, defaultCmd = m.ConfigView.Update(msg)
	case ViewDashboard:
		m.DashView, defaultCmd = m.DashView.Update(msg)
	case ViewLog:
		m.LogView, defaultCmd = m.LogView.Update(msg)
	}
	cmds = append(cmds, defaultCmd)

	return m, tea.Batch(cmds...)
}

// refresh pulls the controller state without waiting for the next update.
func (m *Model) refresh() {
	m.DashView, _ = m.DashView.Update(m.Controller.Status())
	m.LogView.SetEntries(m.Controller.Log().Entries())
}

func (m Model) export() string {
	st := m.Controller.Status()
	if st.Stats.Total == 0 {
		return "No results to export yet."
	}

	prefix := m.ExportPrefix
	if prefix == "" {
		prefix = "surge_report_" + time.Now().Format("20060102-150405")
	}
	files, err := report.Export(prefix, st, m.Controller.Stats())
	if err != nil {
		return fmt.Sprintf("Export Failed: %v", err)
	}
	return fmt.Sprintf("Exported to %s and %s", files.Summary, files.Latency)
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	nav := strings.Builder{}
	for i, item := range m.MenuItems {
		if ViewID(i) == m.CurrentView {
			nav.WriteString(styles.TabActive.Render(item))
		} else {
			nav.WriteString(styles.TabBase.Render(item))
		}
	}
	navBar := styles.FooterBase.Width(m.Width).Render(nav.String())

	contentStr := ""
	switch m.CurrentView {
	case ViewConfig:
		contentStr = m.ConfigView.View()
	case ViewDashboard:
		contentStr = m.DashView.View()
	case ViewLog:
		contentStr = m.LogView.View()
	}
	content := styles.Panel.Width(m.Width - 2).Height(m.Height - 7).Render(contentStr)

	keys1 := []string{
		styles.RenderKey("Ctrl+<->", "View"),
		styles.RenderKey("Tab", "Field"),
		styles.RenderKey("Ctrl+D", "Dash"),
	}
	keys2 := []string{
		styles.RenderKey("Ctrl+R", "Start"),
		styles.RenderKey("Ctrl+S", "Stop"),
		styles.RenderKey("Ctrl+X", "Reset"),
		styles.RenderKey("Ctrl+L", "Clear Log"),
		styles.RenderKey("Ctrl+P", "Export"),
		styles.RenderKey("Ctrl+C", "Quit"),
	}
	helpRow1 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys1, "   "))
	helpRow2 := styles.FooterBase.Width(m.Width).Render(strings.Join(keys2, "   "))
	footer := lipgloss.JoinVertical(lipgloss.Left, helpRow1, helpRow2)

	if m.StatusMsg != "" {
		status := styles.Box.BorderForeground(styles.ColorHighlight).Render(m.StatusMsg)
		return lipgloss.JoinVertical(lipgloss.Left, navBar, content, status, footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left, navBar, content, footer)
}
