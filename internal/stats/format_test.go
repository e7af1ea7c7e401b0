package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{999 * time.Millisecond, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{100 * time.Hour, "100:00:00"},
		{-5 * time.Second, "00:00:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatElapsed(tc.in), "input %s", tc.in)
	}
}

func TestOutcomeLengthString(t *testing.T) {
	assert.Equal(t, "unknown", Failed("x", 0).LengthString())
	assert.Equal(t, "unknown", Succeeded(200, 0, UnknownLength).LengthString())
	assert.Equal(t, "0", Succeeded(204, 0, 0).LengthString())
}

func TestMillis(t *testing.T) {
	assert.Equal(t, "12.50ms", Millis(12500*time.Microsecond))
}
