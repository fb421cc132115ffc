package dns

import (
	"fmt"
	"sort"
	"sync"

	"github.com/certhook/certhook/internal/config"
)

// Factory builds a Provider from the loaded configuration.
type Factory func(cfg *config.Config) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a provider available under the given name. Built-in
// providers register from their package init; additional providers can be
// registered before Load is called.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Load builds the provider selected by name. Unknown names list the
// registered providers in the error so a config typo is obvious.
func Load(name string, cfg *config.Config) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown dns provider %q (registered: %v)", name, Registered())
	}
	return f(cfg)
}

// Registered returns the registered provider names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
