// Package notify pushes task events to connected users over WebSocket.
package notify

import "sync"

// Registry maps a principal to its one live connection. A later connection
// replaces the earlier mapping. State lives only in this process.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]string)}
}

// Register stores or overwrites the mapping for principalID.
func (r *Registry) Register(principalID, connID string) {
	r.mu.Lock()
	r.conns[principalID] = connID
	r.mu.Unlock()
}

// Unregister removes the mapping for principalID unconditionally. Disconnects
// go through Release instead, which cannot drop a newer connection.
func (r *Registry) Unregister(principalID string) {
	r.mu.Lock()
	delete(r.conns, principalID)
	r.mu.Unlock()
}

// Release removes the mapping only if it still points at connID, so a stale
// disconnect cannot drop a newer connection. Reports whether it removed anything.
func (r *Registry) Release(principalID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[principalID] != connID {
		return false
	}
	delete(r.conns, principalID)
	return true
}

// Resolve returns the live connection id for principalID.
func (r *Registry) Resolve(principalID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conns[principalID]
	return id, ok
}

// Len returns the number of mapped principals.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
