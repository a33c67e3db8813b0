package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mewah/core/internal/asset"
	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/core/layout"
	"github.com/mewah/core/internal/core/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `
assets:
  - id: 2
    load: when_needed
    cache: 30s
    index: 1
  - id: 1
    cache: forever
components:
  - name: Unit
    fields:
      - {name: hp, kind: int, initial: 100}
      - {name: speed, kind: float, initial: 2.5}
      - {name: label, kind: text, initial: grunt}
      - {name: extra, kind: any, initial: {kind: text, value: boss}}
      - {name: count, kind: int}
  - name: "Cafe\u0301"
    fields:
      - {name: open, kind: any}
`

func TestParseSchema(t *testing.T) {
	app, err := ParseSchema([]byte(sampleSchema))
	require.NoError(t, err)

	assert.Equal(t, asset.Header{
		Load:  asset.LoadWhenNeeded,
		Cache: asset.CacheDirective{Kind: asset.Cache, TTL: 30 * time.Second},
		Index: 1,
	}, app.Assets[2])
	assert.Equal(t, asset.CacheForever, app.Assets[1].Cache.Kind)
	assert.Equal(t, asset.LoadImmediate, app.Assets[1].Load)

	require.Len(t, app.Components, 2)
	unit := app.Components[0]
	assert.Equal(t, "Unit", unit.Name)
	want := []value.Value{value.Int(100), value.Float(2.5), value.Text("grunt"), value.Text("boss"), value.Int(0)}
	require.Len(t, unit.Fields, len(want))
	for i, v := range want {
		assert.True(t, v.Equal(unit.Fields[i].Initial), "field %d: got %s", i, unit.Fields[i].Initial)
	}
	info := unit.Layout()
	assert.Equal(t, info.Size, unit.LayoutSize)
	assert.Equal(t, info.Align, unit.LayoutAlign)

	// decomposed in the source, composed after loading
	assert.Equal(t, "Caf\u00e9", app.Components[1].Name)
	assert.Equal(t, ecs.FieldAny, app.Components[1].Fields[0].Kind)
}

func TestParseSchemaLayoutOverride(t *testing.T) {
	src := `
components:
  - name: Wide
    size: 64
    align: 32
    fields:
      - {name: a, kind: int}
`
	app, err := ParseSchema([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, uintptr(64), app.Components[0].LayoutSize)
	assert.Equal(t, uintptr(32), app.Components[0].LayoutAlign)
}

func TestParseSchemaPartialLayoutOverride(t *testing.T) {
	src := `
components:
  - name: Sized
    size: 64
    fields:
      - {name: a, kind: int}
  - name: Aligned
    align: 16
    fields:
      - {name: a, kind: int}
`
	app, err := ParseSchema([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, uintptr(64), app.Components[0].LayoutSize)
	assert.Equal(t, uintptr(8), app.Components[0].LayoutAlign)
	assert.Equal(t, uintptr(16), app.Components[1].LayoutSize)
	assert.Equal(t, uintptr(16), app.Components[1].LayoutAlign)

	out, err := MarshalSchema(app)
	require.NoError(t, err)
	back, err := ParseSchema(out)
	require.NoError(t, err)
	for i := range app.Components {
		assert.Equal(t, app.Components[i].LayoutSize, back.Components[i].LayoutSize)
		assert.Equal(t, app.Components[i].LayoutAlign, back.Components[i].LayoutAlign)
	}
}

func TestParseSchemaErrors(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"bad kind", "components:\n  - name: A\n    fields:\n      - {name: a, kind: bool}\n", "unknown field kind"},
		{"bad initial", "components:\n  - name: A\n    fields:\n      - {name: a, kind: int, initial: nope}\n", "initial"},
		{"dup field", "components:\n  - name: A\n    fields:\n      - {name: a, kind: int}\n      - {name: a, kind: int}\n", "declared twice"},
		{"dup component", "components:\n  - name: A\n  - name: A\n", "declared twice"},
		{"dup asset", "assets:\n  - id: 1\n  - id: 1\n", "declared twice"},
		{"bad cache", "assets:\n  - id: 1\n    cache: sometimes\n", "cache directive"},
		{"bad any kind", "components:\n  - name: A\n    fields:\n      - {name: a, kind: any, initial: {kind: list}}\n", "unknown value kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseSchemaRejectsIllegalLayout(t *testing.T) {
	src := "components:\n  - name: A\n    size: 4\n    align: 8\n"
	_, err := ParseSchema([]byte(src))
	require.ErrorIs(t, err, layout.ErrInvalidLayout)
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSchema), 0o644))
	app, err := LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Len(t, app.Components, 2)

	_, err = LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestMarshalSchemaRoundTrip(t *testing.T) {
	app, err := ParseSchema([]byte(sampleSchema))
	require.NoError(t, err)
	app.Components = append(app.Components, ecs.ComponentSchema{
		Name:        "Wide",
		LayoutSize:  64,
		LayoutAlign: 32,
		Fields:      []ecs.FieldSchema{ecs.IntField("a", -3)},
	})

	out, err := MarshalSchema(app)
	require.NoError(t, err)
	assert.Contains(t, string(out), "size: 64")
	assert.Contains(t, string(out), "kind: text")

	back, err := ParseSchema(out)
	require.NoError(t, err)
	assert.Equal(t, app.Assets, back.Assets)
	require.Len(t, back.Components, len(app.Components))
	for i, c := range app.Components {
		got := back.Components[i]
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, c.LayoutSize, got.LayoutSize)
		assert.Equal(t, c.LayoutAlign, got.LayoutAlign)
		require.Len(t, got.Fields, len(c.Fields))
		for j, f := range c.Fields {
			assert.Equal(t, f.Name, got.Fields[j].Name)
			assert.Equal(t, f.Kind, got.Fields[j].Kind)
			assert.True(t, f.Initial.Equal(got.Fields[j].Initial), "%s.%s", c.Name, f.Name)
		}
	}
}
