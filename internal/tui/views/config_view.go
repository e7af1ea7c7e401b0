package views

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"surge/internal/config"
	"surge/internal/runner"
	"surge/internal/tui/styles"
)

// Field Indices
const (
	FieldTarget = iota
	FieldDelay
	FieldWorkers
	FieldMaxRequests
	fieldCount
)

// ConfigView is the run configuration form.
type ConfigView struct {
	Inputs []textinput.Model
	Focus  int

	Viewport viewport.Model

	Width  int
	Height int
}

func NewConfigView(initial runner.Config) ConfigView {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].PromptStyle = styles.Subtle
		inputs[i].TextStyle = styles.Subtle
		inputs[i].Width = 10
	}

	inputs[FieldTarget].Placeholder = "http://localhost:3000/api/status"
	inputs[FieldTarget].SetValue(initial.Target)
	inputs[FieldTarget].Prompt = "Target URL: "
	inputs[FieldTarget].Width = 48

	inputs[FieldDelay].SetValue(strconv.FormatFloat(initial.Delay.Seconds(), 'f', -1, 64))
	inputs[FieldDelay].Prompt = "Delay (s): "

	inputs[FieldWorkers].SetValue(strconv.Itoa(initial.Workers))
	inputs[FieldWorkers].Prompt = "Workers: "

	inputs[FieldMaxRequests].SetValue(strconv.Itoa(initial.MaxRequests))
	inputs[FieldMaxRequests].Prompt = "Max Requests: "

	v := ConfigView{
		Inputs:   inputs,
		Viewport: viewport.New(0, 0),
	}
	v, _ = v.focusCmd()
	return v
}

func (m ConfigView) Init() tea.Cmd {
	return textinput.Blink
}

func (m ConfigView) GetHelp() string {
	switch m.Focus {
	case FieldTarget:
		return "The address every worker requests.\nExample: http://localhost:3000/api/status\n\nTemplate Variables:\n• {{worker}}: ID of the worker sending the request.\n• {{uuid}}: A fresh UUID for every request.\n• {{randomInt 1 100}}: A random number in [1, 100)."
	case FieldDelay:
		return "Pause (seconds) each worker waits between its requests.\nFractions are allowed, 0 sends back to back."
	case FieldWorkers:
		return "Number of concurrent workers.\nEach worker has at most one request in flight."
	case FieldMaxRequests:
		return "Total requests across all workers before the run stops itself.\n0 runs until stopped."
	}
	return ""
}

func (m ConfigView) Update(msg tea.Msg) (ConfigView, tea.Cmd) {
	var cmds []tea.Cmd

	isNav := false
	dir := 0

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down", "enter":
			isNav = true
			dir = 1
		case "shift+tab", "up":
			isNav = true
			dir = -1
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Viewport.Width = msg.Width - 4
		m.Viewport.Height = msg.Height - 4
	}

	if isNav {
		m.Focus = (m.Focus + dir + fieldCount) % fieldCount
		var cmd tea.Cmd
		m, cmd = m.focusCmd()
		cmds = append(cmds, cmd)
	} else {
		var cmd tea.Cmd
		m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
		cmds = append(cmds, cmd)
	}

	var vpCmd tea.Cmd
	m.Viewport, vpCmd = m.Viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

func (m ConfigView) focusCmd() (ConfigView, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 1)
	for i := range m.Inputs {
		if i == m.Focus {
			cmds = append(cmds, m.Inputs[i].Focus())
			m.Inputs[i].PromptStyle = styles.Active
			m.Inputs[i].TextStyle = styles.Text
		} else {
			m.Inputs[i].Blur()
			m.Inputs[i].PromptStyle = styles.Subtle
			m.Inputs[i].TextStyle = styles.Subtle
		}
	}
	return m, tea.Batch(cmds...)
}

// GetConfig reads the form. Unparsable numbers become values the controller
// rejects, so the problem is reported through the event log.
func (m ConfigView) GetConfig() runner.Config {
	delay := -1.0
	if d, err := strconv.ParseFloat(strings.TrimSpace(m.Inputs[FieldDelay].Value()), 64); err == nil {
		delay = d
	}
	workers, err := strconv.Atoi(strings.TrimSpace(m.Inputs[FieldWorkers].Value()))
	if err != nil {
		workers = 0
	}
	maxReq, err := strconv.Atoi(strings.TrimSpace(m.Inputs[FieldMaxRequests].Value()))
	if err != nil {
		maxReq = -1
	}

	return runner.Config{
		Target:      strings.TrimSpace(m.Inputs[FieldTarget].Value()),
		Delay:       config.Seconds(delay),
		Workers:     workers,
		MaxRequests: maxReq,
	}
}

func (m ConfigView) renderInput(idx int) string {
	style := styles.InputNormal
	if idx == m.Focus {
		style = styles.InputActive
	}
	return style.Render(m.Inputs[idx].View())
}

func (m ConfigView) View() string {
	inputCol := strings.Builder{}
	inputCol.WriteString("\n")
	for i := range m.Inputs {
		inputCol.WriteString(m.renderInput(i))
		inputCol.WriteString("\n")
	}

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.ColorBorder).
		Padding(1, 2).
		Width(45).
		Height(12)

	help := styles.Subtle.Bold(true).Render("Information") + "\n\n" +
		styles.Text.Foreground(styles.ColorSecondary).Render(m.GetHelp())

	mainRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(64).Render(inputCol.String()),
		helpBox.Render(help),
	)

	m.Viewport.SetContent(mainRow)
	return m.Viewport.View()
}
