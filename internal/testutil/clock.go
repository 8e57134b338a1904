package testutil

import (
	"fmt"
	"sync"
)

// DeterministicClock mirrors the engine's logical clock in tests.
//
// A harness run dispatches events in a known order, so every successful
// dispatch must carry exactly the seq this clock predicts. Expect turns a
// gap or a repeat into an error.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
//
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{seq: 0}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Expect advances the clock and reports an error unless seq is the value
// it advanced to.
func (c *DeterministicClock) Expect(seq int64) error {
	want := c.Next()
	if seq != want {
		return fmt.Errorf("seq %d out of order, expected %d", seq, want)
	}
	return nil
}

// Reset resets the clock to 0.
//
// After Reset(), the next call to Next() returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
