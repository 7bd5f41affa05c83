package config

import "sync"

// Holder shares an immutable Settings snapshot between concurrent handlers.
// Readers call Current; the sync command builds a new snapshot and swaps it
// in with Replace. Snapshots are never mutated after publication.
type Holder struct {
	mu      sync.RWMutex
	current *Settings
}

// NewHolder creates a Holder with the initial snapshot.
func NewHolder(s *Settings) *Holder {
	return &Holder{current: s}
}

// Current returns the active settings snapshot.
func (h *Holder) Current() *Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Replace publishes a new settings snapshot.
func (h *Holder) Replace(s *Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = s
}
