package goSession

import "sync/atomic"

// MemoryState is the default authenticated-flag container.
type MemoryState struct {
	authenticated atomic.Bool
}

// SetAuthenticated stores the flag.
func (s *MemoryState) SetAuthenticated(v bool) {
	s.authenticated.Store(v)
}

// Authenticated loads the flag.
func (s *MemoryState) Authenticated() bool {
	return s.authenticated.Load()
}
