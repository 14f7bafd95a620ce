package feature

import (
	"fmt"
	"sync"

	"hotkeyd/internal/logging"
)

// Registry indexes features by name. Each feature is instantiated exactly
// once per process; duplicate names are rejected, never silently
// overwritten.
type Registry struct {
	mu sync.RWMutex

	features map[string]Feature
	order    []string
	log      *logging.Logger
}

// NewRegistry creates an empty feature registry.
func NewRegistry(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.Null
	}
	return &Registry{
		features: make(map[string]Feature),
		log:      log,
	}
}

// Register adds an instantiated feature. Fails on empty or duplicate
// names.
func (r *Registry) Register(f Feature) error {
	if f == nil {
		return fmt.Errorf("cannot register nil feature")
	}
	name := f.Name()
	if name == "" {
		return fmt.Errorf("cannot register feature with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.features[name]; exists {
		return fmt.Errorf("duplicate feature name: %s", name)
	}
	r.features[name] = f
	r.order = append(r.order, name)
	return nil
}

// Build instantiates each factory once with the shared collaborators and
// registers the result. A factory error or duplicate name is logged and
// skipped; the remaining factories still register.
func (r *Registry) Build(deps Deps, factories ...Factory) {
	for _, factory := range factories {
		f, err := factory(deps)
		if err != nil {
			r.log.Error("constructing feature: %v", err)
			continue
		}
		if err := r.Register(f); err != nil {
			r.log.Error("registering feature: %v", err)
		}
	}
}

// Get returns a feature by name.
func (r *Registry) Get(name string) (Feature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.features[name]
	return f, ok
}

// Has returns true if a feature is registered under the name.
// Implements keymap.FeatureSet.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.features[name]
	return ok
}

// Names returns the registered feature names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered features.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.features)
}
