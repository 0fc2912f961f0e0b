// Package strategy assembles the final price engine from registered
// pricing strategies.
package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/catalogsync/indexer/internal/domain/shared"
	"github.com/catalogsync/indexer/internal/domain/shared/strategy"
)

// Registry holds pricing strategies by name and remembers the order in
// which they were registered.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]strategy.PricingStrategy
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]strategy.PricingStrategy)}
}

// Register adds strategies. Registering a taken name fails and leaves the
// remaining strategies unregistered.
func (r *Registry) Register(strategies ...strategy.PricingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range strategies {
		name := s.Name()
		if _, taken := r.byName[name]; taken {
			return fmt.Errorf("%w: pricing strategy %q registered twice", shared.ErrInvalidInput, name)
		}
		r.byName[name] = s
		r.order = append(r.order, name)
	}
	return nil
}

// Lookup returns the strategy registered under name
func (r *Registry) Lookup(name string) (strategy.PricingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown pricing strategy %q", shared.ErrNotFound, name)
	}
	return s, nil
}

// Names returns the registered names in alphabetical order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Clone(r.order)
	slices.Sort(names)
	return names
}

// Select returns the named strategies in the given order, or all of them in
// registration order when names is empty.
func (r *Registry) Select(names ...string) ([]strategy.PricingStrategy, error) {
	if len(names) == 0 {
		r.mu.RLock()
		names = slices.Clone(r.order)
		r.mu.RUnlock()
	}

	selected := make([]strategy.PricingStrategy, 0, len(names))
	for _, name := range names {
		s, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, s)
	}
	return selected, nil
}
