package ecs

// SlotID encodes a 32-bit slot index in the lower bits and the 32-bit arena
// generation in the upper bits. The generation increments whenever the
// store's buffer is reallocated, which invalidates every outstanding handle.
type SlotID uint64

func NewSlotID(index uint32, generation uint32) SlotID {
	return SlotID(uint64(generation)<<32 | uint64(index))
}

func (id SlotID) Index() uint32      { return uint32(id) }
func (id SlotID) Generation() uint32 { return uint32(id >> 32) }

// slotMeta is the per-slot liveness record kept parallel to the arena.
// Nothing clears alive yet; removal and slot reuse are not implemented.
type slotMeta struct {
	alive bool
}
