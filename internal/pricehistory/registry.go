package pricehistory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Key identifies a retained chart: one per container and ticker.
type Key struct {
	Container string
	Ticker    string
}

// Instance is a registered retained chart.
type Instance struct {
	ID      uuid.UUID
	Key     Key
	Chart   Chart
	Series  Series
	Shape   SeriesShape
	Points  int
	Created time.Time
}

// Registry owns the retained charts. Replacing or disposing an entry always
// removes the previous chart first, so at most one chart exists per key.
type Registry struct {
	mu    sync.Mutex
	items map[Key]*Instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[Key]*Instance)}
}

// Get returns the instance registered for k.
func (r *Registry) Get(k Key) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.items[k]
	return inst, ok
}

// Replace registers inst under its key, removing any previous chart.
func (r *Registry) Replace(inst *Instance) {
	r.mu.Lock()
	prev := r.items[inst.Key]
	r.items[inst.Key] = inst
	r.mu.Unlock()

	if prev != nil && prev != inst {
		prev.Chart.Remove()
	}
}

// Dispose removes the chart for k. It is safe to call when nothing is
// registered and reports whether a chart was removed.
func (r *Registry) Dispose(k Key) bool {
	r.mu.Lock()
	inst, ok := r.items[k]
	delete(r.items, k)
	r.mu.Unlock()

	if ok {
		inst.Chart.Remove()
	}
	return ok
}

// DisposeContainer removes every chart attached to a container.
func (r *Registry) DisposeContainer(container string) int {
	r.mu.Lock()
	var victims []*Instance
	for k, inst := range r.items {
		if k.Container == container {
			victims = append(victims, inst)
			delete(r.items, k)
		}
	}
	r.mu.Unlock()

	for _, inst := range victims {
		inst.Chart.Remove()
	}
	return len(victims)
}

// DisposeAll removes every chart.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[Key]*Instance)
	r.mu.Unlock()

	for _, inst := range items {
		inst.Chart.Remove()
	}
}

// Len returns the number of registered charts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
