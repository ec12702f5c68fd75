package tags

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores tag definitions by name, providing discovery and
// duplication safeguards. Implementations can embed or wrap this for
// dependency injection.
type Registry struct {
	mu   sync.RWMutex
	tags map[string]Definition
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		tags: make(map[string]Definition),
	}
}

// Register adds a tag definition. Duplicate names return an error.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tags[def.Name]; exists {
		return fmt.Errorf("tags: tag %q already registered", def.Name)
	}

	r.tags[def.Name] = def
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get retrieves a tag definition by name.
func (r *Registry) Get(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.tags[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrTagNotFound, name)
	}
	return def, nil
}

// List returns a sorted list of registered tag names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tags))
	for name := range r.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a tag is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tags[name]
	return ok
}
