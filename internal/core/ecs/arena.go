package ecs

// arena is the single growable byte buffer behind a component store. grow is
// the only path that reallocates; each call bumps generation so handles
// issued against the previous buffer can be detected as stale.
type arena struct {
	buf        []byte
	generation uint32
}

func (a *arena) len() int { return len(a.buf) }

// grow replaces the buffer with a zeroed one of n bytes and copies the old
// contents byte for byte. Slots keep their exact encoding across the move.
func (a *arena) grow(n int) {
	if n <= len(a.buf) {
		return
	}
	nb := make([]byte, n)
	copy(nb, a.buf)
	a.buf = nb
	a.generation++
}

// slice returns the live window [off, off+size) of the buffer.
func (a *arena) slice(off, size int) []byte {
	return a.buf[off : off+size : off+size]
}
