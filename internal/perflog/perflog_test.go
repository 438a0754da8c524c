package perflog

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledLoggerIsNoop(t *testing.T) {
	l := New(false)

	id := l.LogOpStart("Dense", "neuronUpdate", 100)
	assert.Equal(t, 0, id)

	l.LogChunk(id, 0, 100, time.Now(), time.Now(), 0)

	var buf bytes.Buffer
	require.NoError(t, l.Dump(&buf))
	assert.JSONEq(t, "[]", buf.String())
}

func TestLogChunkProducesBeginEndPair(t *testing.T) {
	l := New(true)

	id := l.LogOpStart("Dense", "neuronUpdate", 100)
	start := time.Now()
	end := start.Add(5 * time.Microsecond)
	l.LogChunk(id, 0, 50, start, end, 2)

	var buf bytes.Buffer
	require.NoError(t, l.Dump(&buf))

	var events []traceEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &events))
	require.Len(t, events, 2)

	assert.Equal(t, "neuronUpdate", events[0].Name)
	assert.Equal(t, "B", events[0].Ph)
	assert.Equal(t, 0, events[0].Pid, "trace events always belong to pid 0")
	assert.Equal(t, 2, events[0].Tid)
	assert.Equal(t, "Dense", events[0].Cat)

	assert.Equal(t, "E", events[1].Ph)
	assert.GreaterOrEqual(t, events[1].Ts, events[0].Ts)

	// ts is elapsed microseconds since the Logger was constructed, not
	// an absolute Unix epoch timestamp (which would be on the order of
	// 1e15 µs today) — a span that started right after New() must read
	// close to zero.
	assert.Less(t, events[0].Ts, float64(time.Second/time.Microsecond))
}

func TestMerge(t *testing.T) {
	a := New(true)
	b := New(true)

	idA := a.LogOpStart("Dense", "kernelA", 10)
	a.LogChunk(idA, 0, 10, time.Now(), time.Now(), 0)

	idB := b.LogOpStart("Same", "kernelB", 10)
	b.LogChunk(idB, 0, 10, time.Now(), time.Now(), 1)

	a.Merge(b)

	var buf bytes.Buffer
	require.NoError(t, a.Dump(&buf))

	var events []traceEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &events))
	assert.Len(t, events, 4)
}

func TestMergeIgnoresDisabledLoggers(t *testing.T) {
	a := New(true)
	disabled := New(false)

	assert.NotPanics(t, func() {
		a.Merge(disabled)
		disabled.Merge(a)
	})
}
