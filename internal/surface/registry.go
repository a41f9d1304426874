// Package surface tracks which chart instance currently occupies each
// display surface. Replacing a surface's chart disposes the previous one.
package surface

import (
	"reflect"
	"sync"
)

// Handle is a rendered chart instance that holds resources.
type Handle interface {
	Dispose()
}

// Well-known surface IDs.
const (
	Distribution = "score-distribution"
	Subjects     = "subject-radar"
	Classes      = "class-bar"
	Detail       = "student-detail"
)

// Registry maps surface IDs to their current handle.
type Registry struct {
	mu      sync.Mutex
	handles map[string]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]Handle)}
}

// Replace installs h on surface id, disposing whatever was there first.
// Installing the handle already in place is a no-op when the handle type is
// comparable.
func (r *Registry) Replace(id string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.handles[id]; ok && old != nil {
		if same(old, h) {
			return
		}
		old.Dispose()
	}
	r.handles[id] = h
}

// Get returns the handle on surface id.
func (r *Registry) Get(id string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// Len is the number of occupied surfaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// DisposeAll disposes every handle and empties the registry.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, h := range r.handles {
		if h != nil {
			h.Dispose()
		}
		delete(r.handles, id)
	}
}

// same reports whether a and b are the same handle. Handles whose dynamic
// type is not comparable are never the same.
func same(a, b Handle) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
