package value

import (
	"fmt"
	"strconv"
)

// Kind tags the payload carried by a Value.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a dynamically typed field payload: a signed word, a 32-bit float
// or a string. The zero Value is Int(0).
type Value struct {
	kind Kind
	i    int
	f    float32
	s    string
}

func Int(v int) Value        { return Value{kind: KindInt, i: v} }
func Float(v float32) Value  { return Value{kind: KindFloat, f: v} }
func Text(v string) Value    { return Value{kind: KindText, s: v} }
func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsText() bool { return v.kind == KindText }

func (v Value) AsInt() (int, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) AsFloat() (float32, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) AsText() (string, bool) {
	return v.s, v.kind == KindText
}

// Equal reports whether both values have the same kind and payload.
// Floats compare by value, so NaN is never equal to itself.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	default:
		return v.s == o.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.Itoa(v.i)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindText:
		return strconv.Quote(v.s)
	}
	return fmt.Sprintf("<invalid %s>", v.kind)
}
