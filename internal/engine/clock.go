package engine

import "sync/atomic"

// Clock hands out the seq stamped on each journaled event. Seq values start
// at 1 and never repeat; a failed journal write leaves a gap.
//
// Dispatch calls Next under its own lock, so journal order and reduction
// order agree even when callers race.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock for an empty journal.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose next seq is last+1. Open uses it with
// the journal's last seq.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.seq.Store(last)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out, or the starting position.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
