package browse

import "time"

// DefaultDebounce is the quiet period after the last keystroke before search
// input is evaluated.
const DefaultDebounce = 400 * time.Millisecond

// Debouncer keeps a single pending evaluation. Each Push replaces the previous
// one; fire runs on the timer goroutine and should only hand the sequence
// number back to the owning loop, which then calls Accept.
//
// Push, Accept and Cancel must be called from the owning loop.
type Debouncer struct {
	clock  Clock
	window time.Duration
	fire   func(seq uint64, text string)

	timer   Timer
	seq     uint64
	pending bool
}

func NewDebouncer(clock Clock, window time.Duration, fire func(seq uint64, text string)) *Debouncer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Debouncer{clock: clock, window: window, fire: fire}
}

// Push schedules an evaluation of text and cancels the previous one.
func (d *Debouncer) Push(text string) uint64 {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = true
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(seq, text) })
	return seq
}

// Accept reports whether seq is the latest pending evaluation and consumes it.
// A superseded timer that fired anyway is rejected here.
func (d *Debouncer) Accept(seq uint64) bool {
	if !d.pending || seq != d.seq {
		return false
	}
	d.pending = false
	d.timer = nil
	return true
}

// Cancel drops the pending evaluation, if any.
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.seq++
}

func (d *Debouncer) Pending() bool { return d.pending }

func (d *Debouncer) Window() time.Duration { return d.window }
