package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var levels = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Sparkline draws a scrolling one-line chart of the last Width samples.
type Sparkline struct {
	Data  []uint64
	Width int
	Max   uint64
	Style lipgloss.Style
	Label string
}

func NewSparkline(width int, label string, style lipgloss.Style) Sparkline {
	return Sparkline{
		Width: width,
		Label: label,
		Style: style,
		Data:  make([]uint64, 0, width),
	}
}

func (s *Sparkline) Add(val uint64) {
	s.Data = append(s.Data, val)
	if s.Width > 0 && len(s.Data) > s.Width {
		s.Data = s.Data[len(s.Data)-s.Width:]
	}

	// scale to the visible window
	s.Max = 0
	for _, v := range s.Data {
		if v > s.Max {
			s.Max = v
		}
	}
}

func (s *Sparkline) Reset() {
	s.Data = s.Data[:0]
	s.Max = 0
}

// Last is the newest sample, 0 when empty.
func (s Sparkline) Last() uint64 {
	if len(s.Data) == 0 {
		return 0
	}
	return s.Data[len(s.Data)-1]
}

func (s Sparkline) Graph() string {
	var graph strings.Builder
	for _, v := range s.Data {
		graph.WriteString(levels[level(v, s.Max)])
	}
	if pad := s.Width - len(s.Data); pad > 0 {
		graph.WriteString(strings.Repeat(" ", pad))
	}
	return graph.String()
}

func (s Sparkline) View() string {
	if s.Width <= 0 {
		return ""
	}
	label := fmt.Sprintf("%s (now %d, peak %d)", s.Label, s.Last(), s.Max)
	return s.Style.Render(label) + "\n" + s.Style.Render(s.Graph())
}

func level(v, peak uint64) int {
	if peak == 0 || v == 0 {
		return 0
	}
	idx := int(float64(v) / float64(peak) * float64(len(levels)-1))
	if idx < 1 {
		idx = 1
	}
	if idx >= len(levels) {
		idx = len(levels) - 1
	}
	return idx
}
