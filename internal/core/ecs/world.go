package ecs

import (
	"fmt"

	"go.uber.org/zap"
)

// World is the top-level container: one ComponentStore per component schema,
// in the order the schemas were declared.
type World struct {
	registry *Registry
	log      *zap.Logger
}

// NewWorld converts each schema into an empty store. It stops at the first
// schema that fails validation.
func NewWorld(schemas []ComponentSchema, log *zap.Logger) (*World, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w := &World{registry: NewRegistry(), log: log}
	for i, schema := range schemas {
		store, err := NewComponentStore(schema, log.Named("store"))
		if err != nil {
			return nil, fmt.Errorf("schema %d: %w", i, err)
		}
		if _, err := w.registry.Register(store); err != nil {
			return nil, fmt.Errorf("schema %d: %w", i, err)
		}
		log.Debug("component store ready",
			zap.Int("position", i),
			zap.String("component", schema.Name),
			zap.Int("fields", len(schema.Fields)),
			zap.Int("stride", store.Stride()),
		)
	}
	return w, nil
}

func (w *World) Len() int { return w.registry.Len() }

func (w *World) Store(i int) (*ComponentStore, bool) {
	return w.registry.Get(i)
}

func (w *World) StoreByName(name string) (*ComponentStore, bool) {
	return w.registry.Lookup(name)
}

// Each visits every store in declaration order.
func (w *World) Each(fn func(i int, s *ComponentStore)) {
	for i, s := range w.registry.stores {
		fn(i, s)
	}
}
