// Package status implements the small introspection-tree idiom used
// throughout this module's long-lived components: every role, combinator,
// and the provider itself can write a human-readable diagnostic dump by
// writing lines and forking indented sub-trees.
package status

import (
	"fmt"
	"strings"
	"sync"
)

// Consumer collects diagnostic lines at one indentation level. The zero
// value is not usable; create one with NewConsumer.
type Consumer struct {
	mu     *sync.Mutex
	lines  *[]string
	depth  int
	closed bool
}

// NewConsumer creates a root consumer at indentation depth zero.
func NewConsumer() *Consumer {
	return &Consumer{
		mu:    new(sync.Mutex),
		lines: new([]string),
		depth: 0,
	}
}

// Emit appends one formatted line at the consumer's current depth.
func (c *Consumer) Emit(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	indent := strings.Repeat("  ", c.depth)
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.lines = append(*c.lines, indent+line)
}

// Fork returns a child consumer writing to the same underlying buffer one
// indentation level deeper. Callers emit into the fork and then call Join
// to fence the section; the buffer itself is shared so ordering is
// preserved across forks taken in sequence.
func (c *Consumer) Fork() *Consumer {
	return &Consumer{
		mu:    c.mu,
		lines: c.lines,
		depth: c.depth + 1,
	}
}

// Join marks this consumer as done. It exists so call sites that always
// pair Fork with Join (matching the production status-consumer idiom) read
// symmetrically; this implementation needs no action at Join time since
// forks share the parent's buffer directly.
func (c *Consumer) Join() {
	c.closed = true
}

// String renders the accumulated tree. Safe to call at any depth; typically
// called on the root consumer after the walk completes.
func (c *Consumer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(*c.lines, "\n")
}
