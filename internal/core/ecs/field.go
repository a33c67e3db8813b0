package ecs

import (
	"encoding/binary"
	"math"

	"github.com/mewah/core/internal/core/value"
)

// Field encodings inside a slot, all native byte order:
//
//	int    8 bytes, two's complement
//	float  4 bytes, IEEE 754 bits
//	text   8 bytes text table ref, 8 bytes byte length
//	any    1 byte value.Kind, padding, payload at anyPayload encoded as above

var ne = binary.NativeEndian

// initField writes f's initial value into a freshly made slot.
func (s *ComponentStore) initField(b []byte, f FieldSchema) {
	s.writeField(b, f.Kind, f.Initial, true)
}

// writeField stores v at b. fresh means b holds no previous value, so any
// text ref found there must not be reused.
func (s *ComponentStore) writeField(b []byte, kind FieldKind, v value.Value, fresh bool) {
	switch kind {
	case FieldInt:
		i, _ := v.AsInt()
		ne.PutUint64(b, uint64(i))
	case FieldFloat:
		f, _ := v.AsFloat()
		ne.PutUint32(b, math.Float32bits(f))
	case FieldText:
		t, _ := v.AsText()
		s.putText(b, t, fresh)
	case FieldAny:
		s.writeAny(b, v, fresh)
	}
}

func (s *ComponentStore) writeAny(b []byte, v value.Value, fresh bool) {
	payload := b[anyPayload:]
	wasText := !fresh && value.Kind(b[0]) == value.KindText
	if wasText && !v.IsText() {
		s.releaseText(payload)
	}
	b[0] = byte(v.Kind())
	switch v.Kind() {
	case value.KindInt:
		i, _ := v.AsInt()
		ne.PutUint64(payload, uint64(i))
	case value.KindFloat:
		f, _ := v.AsFloat()
		ne.PutUint32(payload, math.Float32bits(f))
	case value.KindText:
		t, _ := v.AsText()
		s.putText(payload, t, !wasText)
	}
}

func (s *ComponentStore) readField(b []byte, kind FieldKind) value.Value {
	switch kind {
	case FieldFloat:
		return value.Float(math.Float32frombits(ne.Uint32(b)))
	case FieldText:
		return value.Text(s.getText(b))
	case FieldAny:
		return s.readAny(b)
	default:
		return value.Int(int(ne.Uint64(b)))
	}
}

func (s *ComponentStore) readAny(b []byte) value.Value {
	payload := b[anyPayload:]
	switch value.Kind(b[0]) {
	case value.KindFloat:
		return value.Float(math.Float32frombits(ne.Uint32(payload)))
	case value.KindText:
		return value.Text(s.getText(payload))
	default:
		return value.Int(int(ne.Uint64(payload)))
	}
}

func (s *ComponentStore) putText(b []byte, v string, fresh bool) {
	var ref uint64
	if !fresh {
		ref = ne.Uint64(b)
	}
	switch {
	case ref != 0:
		s.texts[ref-1] = v
	case v != "":
		ref = s.allocText(v)
	}
	ne.PutUint64(b, ref)
	ne.PutUint64(b[8:], uint64(len(v)))
}

func (s *ComponentStore) getText(b []byte) string {
	ref := ne.Uint64(b)
	if ref == 0 || ref > uint64(len(s.texts)) {
		return ""
	}
	return s.texts[ref-1]
}

func (s *ComponentStore) allocText(v string) uint64 {
	if n := len(s.freeTexts); n > 0 {
		ref := s.freeTexts[n-1]
		s.freeTexts = s.freeTexts[:n-1]
		s.texts[ref-1] = v
		return ref
	}
	s.texts = append(s.texts, v)
	return uint64(len(s.texts))
}

// releaseText returns the entry referenced by b to the free list.
func (s *ComponentStore) releaseText(b []byte) {
	if ref := ne.Uint64(b); ref != 0 {
		s.texts[ref-1] = ""
		s.freeTexts = append(s.freeTexts, ref)
	}
	ne.PutUint64(b, 0)
	ne.PutUint64(b[8:], 0)
}
