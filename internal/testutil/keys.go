package testutil

import (
	"fmt"
	"sync"
)

// SequentialKeyGenerator hands out idempotency keys "<prefix>-1",
// "<prefix>-2", ... in call order.
//
// Unlike engine.FixedGenerator it never runs out, so scenarios can submit
// any number of posts and still name the keys they confirm.
//
// Thread-safety: SequentialKeyGenerator is safe for concurrent use via internal mutex.
type SequentialKeyGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialKeyGenerator creates a generator for the given prefix.
// If prefix is empty, "key" is used.
func NewSequentialKeyGenerator(prefix string) *SequentialKeyGenerator {
	if prefix == "" {
		prefix = "key"
	}
	return &SequentialKeyGenerator{prefix: prefix}
}

// Generate returns the next key.
//
// Implements engine.KeyGenerator interface.
func (g *SequentialKeyGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequentialKeyGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
