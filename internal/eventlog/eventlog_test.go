package eventlog

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_CapDropsOldestFirst(t *testing.T) {
	l := New(DefaultCapacity, zerolog.Nop())

	for i := 0; i < DefaultCapacity+25; i++ {
		l.Info("line %d", i)
	}

	entries := l.Entries()
	require.Len(t, entries, DefaultCapacity)
	assert.Equal(t, "line 25", entries[0].Message)
	assert.Equal(t, fmt.Sprintf("line %d", DefaultCapacity+24), entries[len(entries)-1].Message)
}

func TestLog_SmallCapacity(t *testing.T) {
	l := New(3, zerolog.Nop())
	for _, m := range []string{"a", "b", "c", "d", "e"} {
		l.Info("%s", m)
	}

	var got []string
	for _, e := range l.Entries() {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"c", "d", "e"}, got)
}

func TestLog_CategoriesAndClear(t *testing.T) {
	l := New(0, zerolog.Nop())
	l.Info("starting")
	l.Success("ok")
	l.Error("bad")
	l.Error("worse")

	assert.Equal(t, 1, l.Count(Info))
	assert.Equal(t, 1, l.Count(Success))
	assert.Equal(t, 2, l.Count(Error))

	l.Clear()
	assert.Zero(t, l.Len())
}

func TestLog_MirrorsToZerolog(t *testing.T) {
	var buf bytes.Buffer
	l := New(10, zerolog.New(&buf))

	l.Error("target %s unreachable", "x")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"category":"error"`)
	assert.Contains(t, out, "target x unreachable")
}

func TestEntry_String(t *testing.T) {
	e := Entry{Time: time.Date(2024, 5, 1, 9, 8, 7, 0, time.UTC), Message: "hello"}
	assert.Equal(t, "[09:08:07] hello", e.String())
}

func TestLog_ConcurrentWriters(t *testing.T) {
	l := New(100, zerolog.Nop())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				l.Info("w")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, l.Len())
}
