package ecs

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/mewah/core/internal/core/layout"
	"go.uber.org/zap"
)

// ErrCapacityOverflow is returned when the store cannot grow any further
// without overflowing its size or index space.
var ErrCapacityOverflow = errors.New("component store capacity overflow")

const growthFactor = 2

// maxArenaBytes bounds a single store's arena.
const maxArenaBytes = 1 << 40

// ComponentStore keeps every instance of one component schema packed at a
// fixed stride in one contiguous byte arena, with a parallel liveness slice.
//
// All mutation takes the write lock; lookups and handle reads take the read
// lock, so readers may share a store across goroutines.
type ComponentStore struct {
	mu sync.RWMutex

	schema  ComponentSchema
	offsets []uintptr
	stride  uintptr

	arena arena
	meta  []slotMeta

	// texts backs every text payload in the arena. Slots refer to entries
	// by 1-based index; 0 is the empty string.
	texts     []string
	freeTexts []uint64

	log *zap.Logger
}

// NewComponentStore validates schema and returns an empty store with no
// capacity. The stride is the declared size rounded up to the declared
// alignment. A nil logger disables logging.
func NewComponentStore(schema ComponentSchema, log *zap.Logger) (*ComponentStore, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	fields := make([]FieldSchema, len(schema.Fields))
	copy(fields, schema.Fields)
	schema.Fields = fields

	return &ComponentStore{
		schema:  schema,
		offsets: schema.Layout().Offsets,
		stride:  layout.AlignTo(schema.LayoutSize, schema.LayoutAlign),
		meta:    make([]slotMeta, 0, 16),
		log:     log,
	}, nil
}

// MakeComponent appends a slot, writes every field's initial value into it
// and returns its index. Indices start at 0 and increase by one per call.
// Growing the arena invalidates every handle issued before the call.
func (s *ComponentStore) MakeComponent() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := len(s.meta)
	if index > math.MaxUint32 {
		return 0, fmt.Errorf("component %q: %w: %d slots", s.schema.Name, ErrCapacityOverflow, index)
	}
	if s.stride > 0 && index >= s.capacity() {
		if err := s.grow(); err != nil {
			return 0, err
		}
	}

	s.meta = append(s.meta, slotMeta{alive: true})
	slot := s.slot(index)
	for i, f := range s.schema.Fields {
		s.initField(slot[s.offsets[i]:], f)
	}
	return index, nil
}

// grow doubles the arena, or sizes it for a single slot when empty.
func (s *ComponentStore) grow() error {
	old := s.arena.len()
	next := uint64(s.stride)
	if old > 0 {
		next = uint64(old) * growthFactor
	}
	if next > maxArenaBytes {
		return fmt.Errorf("component %q: %w: %d bytes", s.schema.Name, ErrCapacityOverflow, next)
	}
	s.arena.grow(int(next))
	s.log.Debug("component store grew",
		zap.String("component", s.schema.Name),
		zap.Int("from_bytes", old),
		zap.Uint64("to_bytes", next),
		zap.Uint32("generation", s.arena.generation),
	)
	return nil
}

// GetComponent returns a handle on slot index when it exists and is alive.
func (s *ComponentStore) GetComponent(index int) (SlotHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.alive(index) {
		return SlotHandle{}, false
	}
	return SlotHandle{store: s, id: NewSlotID(uint32(index), s.arena.generation)}, true
}

// Alive reports whether index names a live slot.
func (s *ComponentStore) Alive(index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive(index)
}

func (s *ComponentStore) alive(index int) bool {
	return index >= 0 && index < len(s.meta) && s.meta[index].alive
}

// BytesCapacity is the length of the arena in bytes.
func (s *ComponentStore) BytesCapacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arena.len()
}

// Capacity is the number of whole slots the arena holds. A field-less
// component never allocates, so every slot it has made fits.
func (s *ComponentStore) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity()
}

func (s *ComponentStore) capacity() int {
	if s.stride == 0 {
		return len(s.meta)
	}
	return s.arena.len() / int(s.stride)
}

// Len is the number of slots made so far.
func (s *ComponentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meta)
}

// Generation is the number of times the arena has been reallocated.
func (s *ComponentStore) Generation() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.arena.generation
}

func (s *ComponentStore) Stride() int             { return int(s.stride) }
func (s *ComponentStore) Name() string            { return s.schema.Name }
func (s *ComponentStore) Schema() ComponentSchema { return s.schema }

// FieldOffset is the byte offset of field i within a slot.
func (s *ComponentStore) FieldOffset(i int) (int, bool) {
	if i < 0 || i >= len(s.offsets) {
		return 0, false
	}
	return int(s.offsets[i]), true
}

// slot returns the stride-sized window of slot index. Caller holds the lock.
func (s *ComponentStore) slot(index int) []byte {
	return s.arena.slice(index*int(s.stride), int(s.stride))
}
