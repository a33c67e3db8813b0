package ecs

import (
	"errors"
	"fmt"
	"strconv"
	"unsafe"

	"github.com/mewah/core/internal/core/layout"
	"github.com/mewah/core/internal/core/value"
)

// Slot encodings below assume 64-bit words; this fails to compile elsewhere.
const _ uintptr = unsafe.Sizeof(uintptr(0)) - 8

var (
	// ErrLayoutMismatch means the declared size/align of a schema cannot hold
	// its fields as packed by the layout calculator.
	ErrLayoutMismatch = errors.New("declared layout does not hold the fields")
	// ErrFieldInitial means a field's initial value has the wrong shape.
	ErrFieldInitial = errors.New("initial value does not match field kind")
)

// FieldKind selects the in-slot representation of a field.
type FieldKind uint8

const (
	FieldInt FieldKind = iota
	FieldFloat
	FieldText
	FieldAny
)

func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldText:
		return "text"
	case FieldAny:
		return "any"
	}
	return "field_kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseFieldKind is the inverse of FieldKind.String.
func ParseFieldKind(s string) (FieldKind, error) {
	for k := FieldInt; k <= FieldAny; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown field kind %q", s)
}

var (
	intInfo   = layout.Info{Size: unsafe.Sizeof(int(0)), Align: unsafe.Alignof(int(0))}
	floatInfo = layout.Info{Size: unsafe.Sizeof(float32(0)), Align: unsafe.Alignof(float32(0))}
	// Text fields hold a reference into the store's text table plus the byte
	// length, sized like a Go string header. Go pointers never live in the arena.
	textInfo = layout.Info{Size: unsafe.Sizeof(""), Align: unsafe.Alignof("")}
	anyInfo  = layout.Variant(1, []layout.Info{intInfo, floatInfo, textInfo})
)

// anyPayload is the offset of the payload inside an Any field.
var anyPayload = anyInfo.Offsets[1]

// FieldSchema describes one field of a component: its kind and the value a
// new slot starts with. Name is optional.
type FieldSchema struct {
	Name    string
	Kind    FieldKind
	Initial value.Value
}

func IntField(name string, initial int) FieldSchema {
	return FieldSchema{Name: name, Kind: FieldInt, Initial: value.Int(initial)}
}

func FloatField(name string, initial float32) FieldSchema {
	return FieldSchema{Name: name, Kind: FieldFloat, Initial: value.Float(initial)}
}

func TextField(name string, initial string) FieldSchema {
	return FieldSchema{Name: name, Kind: FieldText, Initial: value.Text(initial)}
}

func AnyField(name string, initial value.Value) FieldSchema {
	return FieldSchema{Name: name, Kind: FieldAny, Initial: initial}
}

// Info returns the native size and alignment of the field's payload.
func (f FieldSchema) Info() layout.Info {
	switch f.Kind {
	case FieldFloat:
		return floatInfo
	case FieldText:
		return textInfo
	case FieldAny:
		return layout.Info{Size: anyInfo.Size, Align: anyInfo.Align}
	default:
		return intInfo
	}
}

func (f FieldSchema) Size() uintptr  { return f.Info().Size }
func (f FieldSchema) Align() uintptr { return f.Info().Align }

// Validate checks that the kind is known and the initial value fits it.
func (f FieldSchema) Validate() error {
	if f.Kind > FieldAny {
		return fmt.Errorf("field %q: unknown kind %d", f.Name, f.Kind)
	}
	if !f.accepts(f.Initial) {
		return fmt.Errorf("field %q: %w: %s field with %s initial", f.Name, ErrFieldInitial, f.Kind, f.Initial.Kind())
	}
	return nil
}

// accepts reports whether v can be stored in the field.
func (f FieldSchema) accepts(v value.Value) bool {
	switch f.Kind {
	case FieldInt:
		return v.Kind() == value.KindInt
	case FieldFloat:
		return v.Kind() == value.KindFloat
	case FieldText:
		return v.Kind() == value.KindText
	}
	return true
}

// ComponentSchema is the ordered field list of one component type plus the
// declared size and alignment of one instance.
type ComponentSchema struct {
	Name        string
	LayoutSize  uintptr
	LayoutAlign uintptr
	Fields      []FieldSchema
}

// NewComponentSchema builds a schema whose declared layout is exactly the
// packed layout of fields.
func NewComponentSchema(name string, fields ...FieldSchema) ComponentSchema {
	s := ComponentSchema{Name: name, Fields: fields}
	info := s.Layout()
	s.LayoutSize, s.LayoutAlign = info.Size, info.Align
	return s
}

// Layout packs the fields in declared order.
func (s ComponentSchema) Layout() layout.Info {
	infos := make([]layout.Info, len(s.Fields))
	for i, f := range s.Fields {
		infos[i] = f.Info()
	}
	return layout.Compute(infos)
}

// Validate checks the declared size/align pair, every field, and that the
// declared layout is large and aligned enough for the packed fields.
func (s ComponentSchema) Validate() error {
	if err := layout.ValidPair(s.LayoutSize, s.LayoutAlign); err != nil {
		return fmt.Errorf("component %q: %w", s.Name, err)
	}
	for _, f := range s.Fields {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("component %q: %w", s.Name, err)
		}
	}
	info := s.Layout()
	if s.LayoutSize < info.Size || s.LayoutAlign < info.Align {
		return fmt.Errorf("component %q: %w: declared %d/%d, fields need %d/%d",
			s.Name, ErrLayoutMismatch, s.LayoutSize, s.LayoutAlign, info.Size, info.Align)
	}
	return nil
}

// FieldIndex finds a field by name.
func (s ComponentSchema) FieldIndex(name string) (int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}
