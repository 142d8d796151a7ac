// Package resize re-runs renders when an observed container's width changes
// by more than a threshold. Height changes are ignored.
package resize

import (
	"math"
	"sync"
)

// RenderFunc re-renders a container at a new width.
type RenderFunc func(width int)

type observer struct {
	width     int
	threshold int
	render    RenderFunc
	running   bool
}

// Coordinator tracks the last-known width of each observed container.
type Coordinator struct {
	mu        sync.Mutex
	threshold int
	observers map[string]*observer
}

// New creates a coordinator whose default threshold is threshold pixels.
// A change must exceed it to trigger a render; 0 reacts to every change.
func New(threshold int) *Coordinator {
	if threshold < 0 {
		threshold = 0
	}
	return &Coordinator{threshold: threshold, observers: make(map[string]*observer)}
}

// Observe registers (or replaces) the render for id at its current width.
func (c *Coordinator) Observe(id string, width int, fn RenderFunc) {
	c.ObserveWithThreshold(id, width, c.threshold, fn)
}

// ObserveWithThreshold is Observe with a per-container threshold.
func (c *Coordinator) ObserveWithThreshold(id string, width, threshold int, fn RenderFunc) {
	if threshold < 0 {
		threshold = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers[id] = &observer{width: width, threshold: threshold, render: fn}
}

// Unobserve stops tracking id.
func (c *Coordinator) Unobserve(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.observers, id)
}

// Observed reports whether id is tracked.
func (c *Coordinator) Observed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.observers[id]
	return ok
}

// Width returns the last width that triggered (or registered) a render.
func (c *Coordinator) Width(id string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.observers[id]
	if !ok {
		return 0, false
	}
	return o.width, true
}

// Notify reports a new width for id and runs its render when the change
// exceeds the threshold. Notifications that arrive while that render is
// still running are dropped, so a render resizing its own container cannot
// loop. It reports whether the render ran.
func (c *Coordinator) Notify(id string, width int) bool {
	c.mu.Lock()
	o, ok := c.observers[id]
	if !ok || o.running {
		c.mu.Unlock()
		return false
	}
	if math.Abs(float64(width-o.width)) <= float64(o.threshold) {
		c.mu.Unlock()
		return false
	}
	o.width = width
	o.running = true
	fn := o.render
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		o.running = false
		c.mu.Unlock()
	}()
	fn(width)
	return true
}
