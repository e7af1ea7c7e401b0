package stats

import (
	"fmt"
	"strconv"
	"time"
)

// FormatElapsed renders d as HH:MM:SS. Hours do not wrap at 24.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Millis renders a duration as fractional milliseconds with two decimals.
func Millis(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
