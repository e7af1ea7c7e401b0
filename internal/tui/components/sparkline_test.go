package components

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestSparkline_ScrollsAndScales(t *testing.T) {
	s := NewSparkline(3, "rate", lipgloss.NewStyle())

	for _, v := range []uint64{10, 1, 2, 8} {
		s.Add(v)
	}

	assert.Equal(t, []uint64{1, 2, 8}, s.Data)
	assert.Equal(t, uint64(8), s.Max)
	assert.Equal(t, uint64(8), s.Last())
	assert.Equal(t, "▁▂█", s.Graph())
}

func TestSparkline_PadsAndResets(t *testing.T) {
	s := NewSparkline(4, "rate", lipgloss.NewStyle())
	s.Add(0)
	assert.Equal(t, "    ", s.Graph())

	s.Add(5)
	s.Reset()
	assert.Empty(t, s.Data)
	assert.Zero(t, s.Max)
	assert.Zero(t, s.Last())
}

func TestSparkline_ZeroWidthRendersNothing(t *testing.T) {
	s := NewSparkline(0, "rate", lipgloss.NewStyle())
	assert.Empty(t, s.View())
}
