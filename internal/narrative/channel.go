// Package narrative queues two-sided chat entries and paces their delivery.
package narrative

import (
	"context"
	"sync"

	"github.com/hejijunhao/edgepair/internal/model"
)

// DefaultCapacity is the number of pending entries kept before the oldest is dropped.
const DefaultCapacity = 15

// Channel is a bounded FIFO of narrative entries. When full, Push evicts the
// oldest pending entry. Safe for concurrent use.
type Channel struct {
	mu      sync.Mutex
	buf     []model.NarrativeEntry
	head    int
	n       int
	dropped uint64
	ready   chan struct{} // signalled when an entry becomes available
	onEvict func(model.NarrativeEntry)
}

// Option configures a Channel.
type Option func(*Channel)

// WithOnEvict sets a callback invoked (under the channel lock) for every
// entry dropped because the channel was full.
func WithOnEvict(f func(model.NarrativeEntry)) Option {
	return func(c *Channel) { c.onEvict = f }
}

// NewChannel creates a Channel. A non-positive capacity selects DefaultCapacity.
func NewChannel(capacity int, opts ...Option) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Channel{
		buf:   make([]model.NarrativeEntry, capacity),
		ready: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push appends entries at the tail in order.
func (c *Channel) Push(entries ...model.NarrativeEntry) {
	if len(entries) == 0 {
		return
	}
	c.mu.Lock()
	for _, e := range entries {
		if c.n == len(c.buf) {
			evicted := c.buf[c.head]
			c.buf[c.head] = model.NarrativeEntry{}
			c.head = (c.head + 1) % len(c.buf)
			c.n--
			c.dropped++
			if c.onEvict != nil {
				c.onEvict(evicted)
			}
		}
		c.buf[(c.head+c.n)%len(c.buf)] = e
		c.n++
	}
	c.mu.Unlock()
	c.signal()
}

// TryPop removes and returns the head entry, if any.
func (c *Channel) TryPop() (model.NarrativeEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return model.NarrativeEntry{}, false
	}
	e := c.buf[c.head]
	c.buf[c.head] = model.NarrativeEntry{}
	c.head = (c.head + 1) % len(c.buf)
	c.n--
	if c.n > 0 {
		c.signal()
	}
	return e, true
}

// Pop blocks until an entry is available or ctx is done.
func (c *Channel) Pop(ctx context.Context) (model.NarrativeEntry, error) {
	for {
		if e, ok := c.TryPop(); ok {
			return e, nil
		}
		select {
		case <-ctx.Done():
			return model.NarrativeEntry{}, ctx.Err()
		case <-c.ready:
		}
	}
}

// Len returns the number of pending entries.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Dropped returns how many entries were evicted on overflow.
func (c *Channel) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Reset discards all pending entries.
func (c *Channel) Reset() {
	c.mu.Lock()
	for i := range c.buf {
		c.buf[i] = model.NarrativeEntry{}
	}
	c.head, c.n = 0, 0
	c.mu.Unlock()
}

// signal wakes one waiting consumer without blocking.
func (c *Channel) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}
