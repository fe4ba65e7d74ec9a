// Package metrics counts auth activity for status displays. Counters are
// in-memory and scoped to the process; nothing is exported to a metrics
// backend.
package metrics

import "sync"

// Recorder increments counters for named events.
type Recorder interface {
	Increment(event string)
}

// Counter implements Recorder with in-memory counts.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounter constructs an in-memory recorder.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int64)}
}

// Increment increases the counter for the given event.
func (c *Counter) Increment(event string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event]++
}

// Count returns the current value for the given event.
func (c *Counter) Count(event string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[event]
}

// Snapshot returns a copy of all recorded counters.
func (c *Counter) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := make(map[string]int64, len(c.counts))
	for key, value := range c.counts {
		clone[key] = value
	}
	return clone
}
