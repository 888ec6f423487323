package model

import (
	"fmt"
	"sort"
	"sync"
)

// Provider resolves entity metadata by entity name.
type Provider interface {
	Lookup(name string) (*Model, error)
}

// Registry is a Provider backed by registered descriptor tables.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// DefaultRegistry is used by the package-level Register and Lookup.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds m under its table name. Registering a name twice is an error.
func (r *Registry) Register(m *Model) error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.models[m.TableName]; dup {
		return fmt.Errorf("%w: %s already registered", ErrInvalidModel, m.TableName)
	}
	r.models[m.TableName] = m
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(m *Model) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (*Model, error) {
	r.mu.RLock()
	m, ok := r.models[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return m, nil
}

// Names returns the registered entity names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds m to the DefaultRegistry.
func Register(m *Model) error {
	return DefaultRegistry.Register(m)
}

// Lookup resolves name against the DefaultRegistry.
func Lookup(name string) (*Model, error) {
	return DefaultRegistry.Lookup(name)
}
