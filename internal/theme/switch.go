package theme

import "sync"

// Switch holds the process-wide dark/light flag at the system boundary.
// Renderers never read it; callers resolve a Theme from it and pass that in.
type Switch struct {
	mu     sync.Mutex
	dark   bool
	nextID int
	subs   map[int]func(Theme)
}

// NewSwitch creates a switch with the initial mode.
func NewSwitch(dark bool) *Switch {
	return &Switch{dark: dark, subs: make(map[int]func(Theme))}
}

// Dark reports the current mode.
func (s *Switch) Dark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// Current resolves the active palette.
func (s *Switch) Current() Theme {
	return Resolve(s.Dark())
}

// Set changes the mode. Subscribers run only when the mode actually changed,
// outside the lock, and receive the new palette. It reports whether a change
// happened.
func (s *Switch) Set(dark bool) bool {
	s.mu.Lock()
	if s.dark == dark {
		s.mu.Unlock()
		return false
	}
	s.dark = dark
	fns := make([]func(Theme), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	t := Resolve(dark)
	for _, fn := range fns {
		fn(t)
	}
	return true
}

// Toggle flips the mode and returns the new value.
func (s *Switch) Toggle() bool {
	s.mu.Lock()
	next := !s.dark
	s.mu.Unlock()
	s.Set(next)
	return next
}

// Subscribe registers fn for theme changes and returns its cancel func.
func (s *Switch) Subscribe(fn func(Theme)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
