package rules

import (
	"fmt"
	"sort"
)

// Registry holds rule modules keyed by character display name. It is
// read-only after loading and safe for concurrent lookups.
type Registry struct {
	modules map[string]*Module
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Register validates m and adds it, overwriting any module with the same name.
//
// Precondition: m must not be nil.
// Postcondition: Get(m.Name) returns m, or an error wrapping
// ErrInvalidRuleModule is returned and the registry is unchanged.
func (r *Registry) Register(m *Module) error {
	if m == nil {
		return fmt.Errorf("nil module: %w", ErrInvalidRuleModule)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	r.modules[m.Name] = m
	return nil
}

// Get returns the module for name, or (nil, false).
func (r *Registry) Get(name string) (*Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Has reports whether name has a rule module.
func (r *Registry) Has(name string) bool {
	_, ok := r.modules[name]
	return ok
}

// Names returns the registered character names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.modules))
	for n := range r.modules {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
