package instance

import (
	"sort"
	"sync"

	"github.com/okian/powerstream/pkg/metrics"
)

// Registry maps instance ids to their State. States are created on first
// use and kept for the life of the process.
type Registry struct {
	mu          sync.RWMutex
	states      map[string]*State
	bufferLimit int
}

// Option configures a Registry.
type Option func(*Registry)

// WithSubscriberBuffer caps undrained live events per subscriber.
// Zero means unbounded.
func WithSubscriberBuffer(limit int) Option {
	return func(r *Registry) {
		if limit > 0 {
			r.bufferLimit = limit
		}
	}
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{states: make(map[string]*State)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the state for id, creating it if needed.
func (r *Registry) Get(id string) *State {
	r.mu.RLock()
	st, ok := r.states[id]
	r.mu.RUnlock()
	if ok {
		return st
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok = r.states[id]; ok {
		return st
	}
	st = newState(id, r.bufferLimit)
	r.states[id] = st
	metrics.UpdateInstanceCount(len(r.states))
	return st
}

// Lookup returns the state for id without creating it.
func (r *Registry) Lookup(id string) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.states[id]
	return st, ok
}

// Len returns the number of known instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// All returns every state ordered by id.
func (r *Registry) All() []*State {
	r.mu.RLock()
	out := make([]*State, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, st)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// CloseSubscribers ends every subscription on every instance.
func (r *Registry) CloseSubscribers() {
	for _, st := range r.All() {
		st.CloseSubscribers()
	}
}
