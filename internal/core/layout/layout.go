// Package layout computes byte layouts (size, alignment, field offsets) for
// runtime-described records. The component store packs slots with it and the
// schema compiler derives declared sizes with it, so both always agree.
package layout

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLayout is returned when a (size, align) pair cannot describe a
// value in memory.
var ErrInvalidLayout = errors.New("invalid layout")

// Info is the layout of one record. Offsets holds one entry per field for
// records built by Compute and is nil otherwise.
type Info struct {
	Size    uintptr
	Align   uintptr
	Offsets []uintptr
}

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// AlignTo rounds off up to the next multiple of align. align must be a power
// of two.
func AlignTo(off, align uintptr) uintptr {
	return (off + align - 1) &^ (align - 1)
}

// ValidPair checks that size and align form a legal layout: align is a
// power of two, size is a multiple of align, and the padded size fits in an
// int.
func ValidPair(size, align uintptr) error {
	if !IsPow2(align) {
		return fmt.Errorf("%w: align %d is not a power of two", ErrInvalidLayout, align)
	}
	if size > uintptr(math.MaxInt)-(align-1) {
		return fmt.Errorf("%w: size %d overflows when padded to %d", ErrInvalidLayout, size, align)
	}
	if size%align != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of align %d", ErrInvalidLayout, size, align)
	}
	return nil
}

// Compute packs fields sequentially. Each field starts at the first offset
// at or after the previous field's end that satisfies its own alignment.
// The record alignment is the largest field alignment (1 for no fields) and
// the size is the end of the last field rounded up to that alignment.
func Compute(fields []Info) Info {
	if len(fields) == 0 {
		return Info{Size: 0, Align: 1}
	}

	offsets := make([]uintptr, len(fields))
	maxAlign := uintptr(1)
	offset := uintptr(0)

	for i, f := range fields {
		offset = AlignTo(offset, f.Align)
		offsets[i] = offset
		if f.Align > maxAlign {
			maxAlign = f.Align
		}
		offset += f.Size
	}

	return Info{
		Size:    AlignTo(offset, maxAlign),
		Align:   maxAlign,
		Offsets: offsets,
	}
}

// Variant is the layout of a tagged union: a discriminant of discSize bytes
// followed by a payload placed at the largest case alignment.
func Variant(discSize uintptr, cases []Info) Info {
	maxAlign := discSize
	maxSize := uintptr(0)

	for _, c := range cases {
		if c.Align > maxAlign {
			maxAlign = c.Align
		}
		if c.Size > maxSize {
			maxSize = c.Size
		}
	}

	payloadOffset := AlignTo(discSize, maxAlign)
	return Info{
		Size:    AlignTo(payloadOffset+maxSize, maxAlign),
		Align:   maxAlign,
		Offsets: []uintptr{0, payloadOffset},
	}
}
