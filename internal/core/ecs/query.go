package ecs

// Each calls fn with a handle on every live slot in index order, stopping
// when fn returns false. Slots made while walking are not visited.
func (s *ComponentStore) Each(fn func(SlotHandle) bool) {
	n := s.Len()
	for i := 0; i < n; i++ {
		h, ok := s.GetComponent(i)
		if !ok {
			continue
		}
		if !fn(h) {
			return
		}
	}
}

// Each2 walks the indices live in both stores, pairing their slots.
func Each2(sa, sb *ComponentStore, fn func(a, b SlotHandle) bool) {
	n := sa.Len()
	if m := sb.Len(); m < n {
		n = m
	}
	for i := 0; i < n; i++ {
		a, ok := sa.GetComponent(i)
		if !ok {
			continue
		}
		b, ok := sb.GetComponent(i)
		if !ok {
			continue
		}
		if !fn(a, b) {
			return
		}
	}
}
