package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var ErrTruncated = errors.New("header payload truncated")

// Reader decodes little-endian header fields from a payload. The first
// failure sticks: later reads return zero values and Err reports it.
type Reader struct {
	data []byte
	off  int
	err  error
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Err() error { return r.err }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, r.off, r.Remaining())
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// ReadU32 reads 4 bytes as little-endian uint32.
func (r *Reader) ReadU32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadU64 reads 8 bytes as little-endian uint64.
func (r *Reader) ReadU64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) ReadI64() int64 { return int64(r.ReadU64()) }

func (r *Reader) ReadF32() float32 { return math.Float32frombits(r.ReadU32()) }

// ReadLen reads a u64 element count and checks that at least min bytes per
// element remain, so a corrupt count cannot trigger a huge allocation.
func (r *Reader) ReadLen(min int) int {
	n := r.ReadU64()
	if r.err != nil {
		return 0
	}
	if min < 1 {
		min = 1
	}
	if n > uint64(r.Remaining()/min) {
		r.err = fmt.Errorf("%w: count %d exceeds remaining %d bytes", ErrTruncated, n, r.Remaining())
		return 0
	}
	return int(n)
}

// ReadS reads a u64 length followed by that many UTF-8 bytes.
func (r *Reader) ReadS() string {
	n := r.ReadU64()
	if r.err != nil {
		return ""
	}
	if n > uint64(r.Remaining()) {
		r.err = fmt.Errorf("%w: string of %d bytes at offset %d", ErrTruncated, n, r.off)
		return ""
	}
	b := r.take(int(n))
	if !utf8.Valid(b) {
		r.err = fmt.Errorf("invalid utf-8 string at offset %d", r.off-len(b))
		return ""
	}
	return string(b)
}
