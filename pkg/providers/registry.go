// Package providers catalogs the backends the automator can drive. The
// registry exists for discovery: the list-providers command reports what is
// registered and whether each backend is usable on this machine.
package providers

import (
	"fmt"
	"sort"
	"sync"
)

// Kind classifies a provider by the backend interface it implements.
type Kind string

const (
	KindUI         Kind = "ui"
	KindProcess    Kind = "process"
	KindFilesystem Kind = "filesystem"
	KindOCR        Kind = "ocr"
)

// Provider describes one registered backend.
type Provider struct {
	// Name is the provider's unique name.
	Name string `json:"name"`

	// Kind is the backend interface the provider implements.
	Kind Kind `json:"kind"`

	// Description explains what the provider does.
	Description string `json:"description"`

	// Available reports whether the provider is usable on this machine.
	Available bool `json:"available"`
}

// Registry holds the registered providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering the same name twice is an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if _, exists := r.providers[p.Name]; exists {
		return fmt.Errorf("provider %s already registered", p.Name)
	}
	r.providers[p.Name] = p
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return Provider{}, fmt.Errorf("provider %s not found", name)
	}
	return p, nil
}

// List returns all registered providers sorted by name.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
