package ecs

import (
	"errors"
	"fmt"

	"github.com/mewah/core/internal/core/value"
)

var (
	// ErrStaleHandle is returned when a handle outlived an arena growth.
	ErrStaleHandle = errors.New("stale slot handle")
	ErrFieldIndex  = errors.New("field index out of range")
	ErrFieldKind   = errors.New("field kind mismatch")
)

// SlotHandle is a lease on one slot of a ComponentStore. It is only valid for
// the arena generation it was issued in: once the store grows, every access
// fails with ErrStaleHandle and the caller must look the slot up again.
//
// Bytes and FieldBytes return copies. A slot's padding bytes carry no
// meaning, so only bytes at field offsets should ever be interpreted.
type SlotHandle struct {
	store *ComponentStore
	id    SlotID
}

func (h SlotHandle) ID() SlotID             { return h.id }
func (h SlotHandle) Index() int             { return int(h.id.Index()) }
func (h SlotHandle) Store() *ComponentStore { return h.store }

// Valid reports whether the handle can still be used.
func (h SlotHandle) Valid() bool {
	if h.store == nil {
		return false
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return h.check() == nil
}

// check verifies the lease. Caller holds the store lock.
func (h SlotHandle) check() error {
	if h.store == nil {
		return ErrStaleHandle
	}
	if h.id.Generation() != h.store.arena.generation {
		return fmt.Errorf("%w: slot %d issued at generation %d, store at %d",
			ErrStaleHandle, h.id.Index(), h.id.Generation(), h.store.arena.generation)
	}
	if !h.store.alive(h.Index()) {
		return fmt.Errorf("%w: slot %d is not alive", ErrStaleHandle, h.id.Index())
	}
	return nil
}

// field resolves field i to its schema entry and byte window. Caller holds
// the store lock.
func (h SlotHandle) field(i int) (FieldSchema, []byte, error) {
	if err := h.check(); err != nil {
		return FieldSchema{}, nil, err
	}
	fields := h.store.schema.Fields
	if i < 0 || i >= len(fields) {
		return FieldSchema{}, nil, fmt.Errorf("%w: %d of %d", ErrFieldIndex, i, len(fields))
	}
	f := fields[i]
	off := int(h.store.offsets[i])
	return f, h.store.slot(h.Index())[off : off+int(f.Size())], nil
}

// Bytes copies the whole slot, padding included.
func (h SlotHandle) Bytes() ([]byte, error) {
	if h.store == nil {
		return nil, ErrStaleHandle
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	if err := h.check(); err != nil {
		return nil, err
	}
	return append([]byte(nil), h.store.slot(h.Index())...), nil
}

// FieldBytes copies the bytes of field i only.
func (h SlotHandle) FieldBytes(i int) ([]byte, error) {
	if h.store == nil {
		return nil, ErrStaleHandle
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	_, b, err := h.field(i)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Value reads field i whatever its kind. For an Any field it returns the
// stored variant.
func (h SlotHandle) Value(i int) (value.Value, error) {
	if h.store == nil {
		return value.Value{}, ErrStaleHandle
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	f, b, err := h.field(i)
	if err != nil {
		return value.Value{}, err
	}
	return h.store.readField(b, f.Kind), nil
}

func (h SlotHandle) typed(i int, kind FieldKind) (value.Value, error) {
	if h.store == nil {
		return value.Value{}, ErrStaleHandle
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	f, b, err := h.field(i)
	if err != nil {
		return value.Value{}, err
	}
	if f.Kind != kind {
		return value.Value{}, fmt.Errorf("%w: field %d is %s, not %s", ErrFieldKind, i, f.Kind, kind)
	}
	return h.store.readField(b, kind), nil
}

func (h SlotHandle) Int(i int) (int, error) {
	v, err := h.typed(i, FieldInt)
	n, _ := v.AsInt()
	return n, err
}

func (h SlotHandle) Float(i int) (float32, error) {
	v, err := h.typed(i, FieldFloat)
	f, _ := v.AsFloat()
	return f, err
}

func (h SlotHandle) Text(i int) (string, error) {
	v, err := h.typed(i, FieldText)
	s, _ := v.AsText()
	return s, err
}

func (h SlotHandle) Any(i int) (value.Value, error) {
	return h.typed(i, FieldAny)
}

// SetValue writes v into field i. Typed fields only accept a value of their
// own kind; Any fields accept every kind.
func (h SlotHandle) SetValue(i int, v value.Value) error {
	if h.store == nil {
		return ErrStaleHandle
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	f, b, err := h.field(i)
	if err != nil {
		return err
	}
	if !f.accepts(v) {
		return fmt.Errorf("%w: field %d is %s, got %s", ErrFieldKind, i, f.Kind, v.Kind())
	}
	h.store.writeField(b, f.Kind, v, false)
	return nil
}

func (h SlotHandle) SetInt(i int, v int) error         { return h.SetValue(i, value.Int(v)) }
func (h SlotHandle) SetFloat(i int, v float32) error   { return h.SetValue(i, value.Float(v)) }
func (h SlotHandle) SetText(i int, v string) error     { return h.SetValue(i, value.Text(v)) }
func (h SlotHandle) SetAny(i int, v value.Value) error { return h.typedSetAny(i, v) }

func (h SlotHandle) typedSetAny(i int, v value.Value) error {
	if h.store == nil {
		return ErrStaleHandle
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	f, b, err := h.field(i)
	if err != nil {
		return err
	}
	if f.Kind != FieldAny {
		return fmt.Errorf("%w: field %d is %s, not any", ErrFieldKind, i, f.Kind)
	}
	h.store.writeAny(b, v, false)
	return nil
}
