package auth

import (
	"fmt"
	"sort"
)

// Registry holds the configured OAuth providers, keyed by name. It is
// built once at startup and only read afterwards.
type Registry struct {
	providers map[string]*OAuthProvider
}

// NewRegistry registers the given providers by name. A later provider with
// the same name replaces an earlier one.
func NewRegistry(list ...*OAuthProvider) *Registry {
	m := make(map[string]*OAuthProvider, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the provider registered under name
func (r *Registry) Get(name string) (*OAuthProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered providers
func (r *Registry) Len() int {
	return len(r.providers)
}
