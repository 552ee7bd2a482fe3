package native

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry stores providers by name and remembers registration order, which
// is the default preference order used during initialization.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider by its Name(). Duplicate names return an error.
func (r *Registry) Register(provider Provider) error {
	if provider == nil {
		return fmt.Errorf("native: provider is required")
	}
	name := normalizeProviderName(provider.Name())
	if name == "" {
		return fmt.Errorf("native: provider name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("native: provider %q already registered", name)
	}

	r.providers[name] = provider
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(provider Provider) {
	if err := r.Register(provider); err != nil {
		panic(err)
	}
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	key := normalizeProviderName(name)
	if key == "" {
		return nil, fmt.Errorf("native: provider name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("native: provider %q not found", key)
	}
	return provider, nil
}

// Has reports whether a provider is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// List returns a sorted list of provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Ordered returns providers following preference first, then every other
// provider in registration order. Unknown names in preference are skipped.
func (r *Registry) Ordered(preference ...string) []Provider {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.order))
	seen := make(map[string]struct{}, len(r.order))
	appendName := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		provider, ok := r.providers[name]
		if !ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, provider)
	}
	for _, name := range preference {
		appendName(normalizeProviderName(name))
	}
	for _, name := range r.order {
		appendName(name)
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func normalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
