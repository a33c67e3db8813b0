package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueIsInt(t *testing.T) {
	var v Value
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.True(t, v.Equal(Int(0)))
}

func TestAccessors(t *testing.T) {
	f, ok := Float(1.5).AsFloat()
	require.True(t, ok)
	assert.Equal(t, float32(1.5), f)

	_, ok = Float(1.5).AsInt()
	assert.False(t, ok)

	s, ok := Text("hi").AsText()
	require.True(t, ok)
	assert.Equal(t, "hi", s)
	assert.True(t, Text("").IsText())
}

func TestEqual(t *testing.T) {
	assert.True(t, Text("a").Equal(Text("a")))
	assert.False(t, Text("a").Equal(Text("b")))
	assert.False(t, Int(1).Equal(Float(1)))
	nan := Float(float32(math.NaN()))
	assert.False(t, nan.Equal(nan))
}

func TestString(t *testing.T) {
	assert.Equal(t, "-3", Int(-3).String())
	assert.Equal(t, "0.25", Float(0.25).String())
	assert.Equal(t, `"x y"`, Text("x y").String())
	assert.Equal(t, "text", KindText.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
