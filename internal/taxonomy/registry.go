package taxonomy

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*Taxonomy)
	registryMu sync.RWMutex
)

// Register adds a loaded taxonomy to the process-wide registry, keyed by
// entry point. Panics if the entry point is already registered.
func Register(t *Taxonomy) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[t.EntryPoint()]; exists {
		panic(fmt.Sprintf("taxonomy already registered: %s", t.EntryPoint()))
	}
	registry[t.EntryPoint()] = t
}

// Get returns a registered taxonomy by entry point.
// Returns false if not found.
func Get(entryPoint string) (*Taxonomy, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	t, ok := registry[entryPoint]
	return t, ok
}

// EntryPoints returns the registered entry points, sorted for consistent
// ordering.
func EntryPoints() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]string, 0, len(registry))
	for ep := range registry {
		out = append(out, ep)
	}
	sort.Strings(out)
	return out
}
