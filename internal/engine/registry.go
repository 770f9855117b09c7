// registry.go: the explicit component type registration table. Component
// packages register a constructor under a string key at process start; the
// graph builder looks types up by key and fails with a configuration error
// on unknown keys.
package engine

import (
	"sort"
	"sync"

	"github.com/jlammi/framix/internal/errors"
)

// Registration describes one component type available to graph builds.
type Registration struct {
	Type        string
	Description string
	New         func() Worker
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register adds a component type to the registry. Call from package init;
// duplicate keys panic, they are always a programming error.
func Register(r Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if r.Type == "" || r.New == nil {
		panic("engine: Register requires a type key and a constructor")
	}
	if _, exists := registry[r.Type]; exists {
		panic("engine: component type registered twice: " + r.Type)
	}
	registry[r.Type] = r
}

// Lookup returns the registration for a type key.
func Lookup(typ string) (Registration, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[typ]
	if !ok {
		return Registration{}, errors.Newf("unknown component type %q", typ).
			Component("engine").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return r, nil
}

// Registered returns every registration sorted by type key, for the
// component catalogue.
func Registered() []Registration {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Registration, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
