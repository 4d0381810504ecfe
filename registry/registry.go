// Package registry holds shared values behind stable integer handles.
//
// A Registry is append-only: handles are assigned sequentially from 0, are
// never reused and never removed. Because entries are never replaced, a
// per-worker Cache can keep resolved references forever without going stale.
package registry

import (
	"math"
	"sync"
)

// Handle identifies a registered value for the life of the process.
type Handle int32

// Registry is an append-only, concurrently readable list of shared values.
// Register takes the write lock; Lookup takes the read lock and runs
// concurrently with other lookups.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries []T
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Register appends v and returns its handle, which equals the registry
// length before the call.
//
// The handle space is int32; registering beyond math.MaxInt32 entries panics.
func (r *Registry[T]) Register(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= math.MaxInt32 {
		panic("registry: handle space exhausted")
	}
	h := Handle(len(r.entries))
	r.entries = append(r.entries, v)
	return h
}

// Lookup returns the value for h. ok is false for negative handles and
// handles at or beyond the current length.
func (r *Registry[T]) Lookup(h Handle) (v T, ok bool) {
	if h < 0 {
		return v, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(h) >= len(r.entries) {
		return v, false
	}
	return r.entries[h], true
}

// Len returns the number of registered values.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
