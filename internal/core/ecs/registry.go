package ecs

import "fmt"

// Registry tracks the component stores of a World in declaration order and
// indexes the named ones.
type Registry struct {
	stores []*ComponentStore
	byName map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]*ComponentStore, 0, 16),
		byName: make(map[string]int, 16),
	}
}

// Register adds a store and returns its position. Names must be unique;
// unnamed stores are reachable by position only.
func (r *Registry) Register(store *ComponentStore) (int, error) {
	name := store.Name()
	if name != "" {
		if _, dup := r.byName[name]; dup {
			return 0, fmt.Errorf("component %q registered twice", name)
		}
		r.byName[name] = len(r.stores)
	}
	r.stores = append(r.stores, store)
	return len(r.stores) - 1, nil
}

func (r *Registry) Get(i int) (*ComponentStore, bool) {
	if i < 0 || i >= len(r.stores) {
		return nil, false
	}
	return r.stores[i], true
}

func (r *Registry) Lookup(name string) (*ComponentStore, bool) {
	i, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.stores[i], true
}

func (r *Registry) Len() int { return len(r.stores) }
