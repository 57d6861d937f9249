package browse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firing struct {
	seq  uint64
	text string
	at   time.Duration
}

func newRecordingDebouncer(clock *fakeClock) (*Debouncer, *[]firing) {
	start := clock.Now()
	var fired []firing
	d := NewDebouncer(clock, DefaultDebounce, func(seq uint64, text string) {
		fired = append(fired, firing{seq: seq, text: text, at: clock.Now().Sub(start)})
	})
	return d, &fired
}

func TestDebouncer_OnlyLastKeystrokeFires(t *testing.T) {
	clock := newFakeClock()
	d, fired := newRecordingDebouncer(clock)

	d.Push("a")
	clock.Advance(100 * time.Millisecond)
	d.Push("ab")
	clock.Advance(100 * time.Millisecond)
	last := d.Push("abc")

	clock.Advance(399 * time.Millisecond)
	assert.Empty(t, *fired, "nothing fires inside the quiet window")
	assert.True(t, d.Pending())

	clock.Advance(1 * time.Millisecond)
	require.Len(t, *fired, 1)
	assert.Equal(t, firing{seq: last, text: "abc", at: 600 * time.Millisecond}, (*fired)[0])

	assert.True(t, d.Accept(last))
	assert.False(t, d.Pending())
	assert.False(t, d.Accept(last), "an evaluation is consumed once")

	clock.Advance(time.Second)
	assert.Len(t, *fired, 1, "superseded timers never fire")
}

func TestDebouncer_SupersededFiringIsRejected(t *testing.T) {
	clock := newFakeClock()
	d, _ := newRecordingDebouncer(clock)

	first := d.Push("cat")
	second := d.Push("cats")

	assert.False(t, d.Accept(first))
	assert.True(t, d.Accept(second))
}

func TestDebouncer_Cancel(t *testing.T) {
	clock := newFakeClock()
	d, fired := newRecordingDebouncer(clock)

	seq := d.Push("dog")
	d.Cancel()
	assert.False(t, d.Pending())

	clock.Advance(time.Second)
	assert.Empty(t, *fired)
	assert.False(t, d.Accept(seq))
	assert.Equal(t, DefaultDebounce, d.Window())
}
