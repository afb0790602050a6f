package schema

import (
	"fmt"
	"sync"
)

// Registry manages all type descriptors known to the runtime. It is populated
// once by the generated code's init() (or by LoadJSON for tooling) and is
// read-only afterward, so concurrent reads are safe once population is done.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type

	// pending tracks types whose Extends target was not yet registered,
	// keyed by the awaited ancestor name.
	pending map[string][]*Type
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[string]*Type),
		pending: make(map[string][]*Type),
	}
}

// Register adds a type descriptor. Registering the same name twice is an
// error. Forward references in Extends are allowed; the ancestor link is
// completed when the ancestor registers.
func (r *Registry) Register(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("type %s is already registered", t.Name)
	}
	r.types[t.Name] = t

	if t.Extends != "" {
		if p, ok := r.types[t.Extends]; ok {
			t.parent = p
		} else {
			r.pending[t.Extends] = append(r.pending[t.Extends], t)
		}
	}
	for _, waiting := range r.pending[t.Name] {
		waiting.parent = t
	}
	delete(r.pending, t.Name)

	return nil
}

// Get retrieves a type descriptor by fully-qualified name.
func (r *Registry) Get(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.types[name]
	return t, exists
}

// Resolve retrieves a type descriptor or fails with a descriptive error.
// This is the lookup used for `@type` tag resolution.
func (r *Registry) Resolve(name string) (*Type, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown type %s", name)
	}
	return t, nil
}

// List returns the names of all registered types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.types)
}

// ValidateAll verifies that every Extends reference resolved. It should be
// called once after registration completes.
func (r *Registry) ValidateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for ancestor, waiting := range r.pending {
		if len(waiting) > 0 {
			return fmt.Errorf("type %s extends unknown type %s", waiting[0].Name, ancestor)
		}
	}
	return nil
}
