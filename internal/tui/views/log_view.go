package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"surge/internal/eventlog"
	"surge/internal/tui/styles"
)

// LogView shows the event log, newest at the bottom. It follows new entries
// unless the user has scrolled up.
type LogView struct {
	Viewport viewport.Model
	count    int

	Width  int
	Height int
}

func NewLogView(width, height int) LogView {
	return LogView{
		Viewport: viewport.New(max(width-4, 0), max(height-2, 0)),
		Width:    width,
		Height:   height,
	}
}

// SetEntries replaces the content.
func (m *LogView) SetEntries(entries []eventlog.Entry) {
	follow := m.Viewport.AtBottom() || m.count == 0

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = styles.ForCategory(e.Category).Render(e.String())
	}
	m.Viewport.SetContent(strings.Join(lines, "\n"))
	m.count = len(entries)

	if follow {
		m.Viewport.GotoBottom()
	}
}

func (m LogView) Update(msg tea.Msg) (LogView, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = max(msg.Width-4, 0)
		m.Viewport.Height = max(msg.Height-2, 0)
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m LogView) View() string {
	if m.count == 0 {
		return styles.Subtle.Render("No log entries yet.")
	}
	return m.Viewport.View()
}
