package fsprovider

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned by Open for a name nobody registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Factory builds a provider scoped to root from a host configuration map.
type Factory func(root string, config map[string]any) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider factory available under name.
// It panics if name is empty, factory is nil or name is already taken.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" || factory == nil {
		panic("fsprovider: Register requires a name and a factory")
	}
	if _, dup := registry[name]; dup {
		panic("fsprovider: Register called twice for provider " + name)
	}
	registry[name] = factory
}

// Open instantiates the provider registered under name.
func Open(name, root string, config map[string]any) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return factory(root, config)
}

// Names returns the registered provider names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
