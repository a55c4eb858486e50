package security

import (
	"sync"

	"github.com/superfaceai/one-sdk-go/internal/transport"
)

// Registry selects a transport.SecurityHandler per provider+requirement,
// grounded on the teacher's access-provider manager (sdk/access.Manager):
// register/unregister under a mutex, snapshot-on-read.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]transport.SecurityHandler
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]transport.SecurityHandler{}}
}

// Register binds id (the security requirement id) to a handler,
// replacing any existing binding.
func (r *Registry) Register(id string, handler transport.SecurityHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = handler
}

// Unregister removes any handler bound to id.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

// Resolve selects a handler from a list of candidate requirement ids, the
// last matching id winning (spec.md section 4.4: "the last matching
// requirement wins").
func (r *Registry) Resolve(ids []string) transport.SecurityHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var selected transport.SecurityHandler
	for _, id := range ids {
		if h, ok := r.handlers[id]; ok {
			selected = h
		}
	}
	return selected
}

// Snapshot returns a copy of the current id -> handler bindings.
func (r *Registry) Snapshot() map[string]transport.SecurityHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]transport.SecurityHandler, len(r.handlers))
	for k, v := range r.handlers {
		out[k] = v
	}
	return out
}
