package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/mewah/core/internal/asset"
	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/core/layout"
	"github.com/mewah/core/internal/core/value"
	"github.com/mewah/core/internal/header"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// AssetEntry is one static asset in a schema source file.
type AssetEntry struct {
	ID    uint32 `yaml:"id"`
	Load  string `yaml:"load"`  // immediate, when_needed
	Cache string `yaml:"cache"` // dont_cache, forever, or a duration like 30s
	Index uint64 `yaml:"index"`
}

// FieldEntry is one component field. Initial is decoded according to Kind;
// an any field takes a {kind, value} mapping.
type FieldEntry struct {
	Name    string    `yaml:"name"`
	Kind    string    `yaml:"kind"` // int, float, text, any
	Initial yaml.Node `yaml:"initial,omitempty"`
}

// ComponentEntry is one component. A non-zero Size or Align overrides the
// computed value; a zero one keeps it. An Align given alone pads the computed
// size up to a multiple of it.
type ComponentEntry struct {
	Name   string       `yaml:"name"`
	Size   uint64       `yaml:"size,omitempty"`
	Align  uint64       `yaml:"align,omitempty"`
	Fields []FieldEntry `yaml:"fields"`
}

type schemaFile struct {
	Assets     []AssetEntry     `yaml:"assets,omitempty"`
	Components []ComponentEntry `yaml:"components,omitempty"`
}

type anyInitial struct {
	Kind  string    `yaml:"kind"`
	Value yaml.Node `yaml:"value"`
}

// LoadSchemaFile reads a YAML schema source and converts it to an
// application header.
func LoadSchemaFile(path string) (*header.Application, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	app, err := ParseSchema(raw)
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return app, nil
}

// ParseSchema converts YAML schema source to an application header. Names
// are normalized to NFC and every component is validated.
func ParseSchema(raw []byte) (*header.Application, error) {
	var f schemaFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	app := &header.Application{
		Assets:     make(map[asset.ID]asset.Header, len(f.Assets)),
		Components: make([]ecs.ComponentSchema, 0, len(f.Components)),
	}

	for _, a := range f.Assets {
		id := asset.ID(a.ID)
		if _, dup := app.Assets[id]; dup {
			return nil, fmt.Errorf("asset %d declared twice", a.ID)
		}
		load, err := asset.ParseLoadDirective(a.Load)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", a.ID, err)
		}
		cache, err := asset.ParseCacheDirective(a.Cache)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", a.ID, err)
		}
		app.Assets[id] = asset.Header{Load: load, Cache: cache, Index: a.Index}
	}

	seen := make(map[string]bool, len(f.Components))
	for i, c := range f.Components {
		schema, err := c.schema()
		if err != nil {
			return nil, fmt.Errorf("component %d (%s): %w", i, c.Name, err)
		}
		if schema.Name != "" {
			if seen[schema.Name] {
				return nil, fmt.Errorf("component %q declared twice", schema.Name)
			}
			seen[schema.Name] = true
		}
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		app.Components = append(app.Components, schema)
	}
	return app, nil
}

func (c ComponentEntry) schema() (ecs.ComponentSchema, error) {
	fields := make([]ecs.FieldSchema, 0, len(c.Fields))
	names := make(map[string]bool, len(c.Fields))
	for _, fe := range c.Fields {
		f, err := fe.field()
		if err != nil {
			return ecs.ComponentSchema{}, err
		}
		if f.Name != "" {
			if names[f.Name] {
				return ecs.ComponentSchema{}, fmt.Errorf("field %q declared twice", f.Name)
			}
			names[f.Name] = true
		}
		fields = append(fields, f)
	}

	schema := ecs.NewComponentSchema(norm.NFC.String(c.Name), fields...)
	if c.Size != 0 {
		schema.LayoutSize = uintptr(c.Size)
	}
	if c.Align != 0 {
		schema.LayoutAlign = uintptr(c.Align)
		if c.Size == 0 && layout.IsPow2(schema.LayoutAlign) {
			schema.LayoutSize = layout.AlignTo(schema.LayoutSize, schema.LayoutAlign)
		}
	}
	return schema, nil
}

func (fe FieldEntry) field() (ecs.FieldSchema, error) {
	kind, err := ecs.ParseFieldKind(fe.Kind)
	if err != nil {
		return ecs.FieldSchema{}, fmt.Errorf("field %q: %w", fe.Name, err)
	}
	f := ecs.FieldSchema{Name: norm.NFC.String(fe.Name), Kind: kind}

	switch kind {
	case ecs.FieldInt:
		f.Initial, err = decodeValue(&fe.Initial, value.KindInt)
	case ecs.FieldFloat:
		f.Initial, err = decodeValue(&fe.Initial, value.KindFloat)
	case ecs.FieldText:
		f.Initial, err = decodeValue(&fe.Initial, value.KindText)
	case ecs.FieldAny:
		f.Initial, err = decodeAny(&fe.Initial)
	}
	if err != nil {
		return ecs.FieldSchema{}, fmt.Errorf("field %q initial: %w", fe.Name, err)
	}
	return f, nil
}

// decodeValue reads node as a value of kind. A missing node is the zero
// value of that kind.
func decodeValue(node *yaml.Node, kind value.Kind) (value.Value, error) {
	empty := node.Kind == 0
	switch kind {
	case value.KindFloat:
		var f float32
		if !empty {
			if err := node.Decode(&f); err != nil {
				return value.Value{}, err
			}
		}
		return value.Float(f), nil
	case value.KindText:
		var s string
		if !empty {
			if err := node.Decode(&s); err != nil {
				return value.Value{}, err
			}
		}
		return value.Text(s), nil
	default:
		var i int
		if !empty {
			if err := node.Decode(&i); err != nil {
				return value.Value{}, err
			}
		}
		return value.Int(i), nil
	}
}

func decodeAny(node *yaml.Node) (value.Value, error) {
	if node.Kind == 0 {
		return value.Int(0), nil
	}
	var a anyInitial
	if err := node.Decode(&a); err != nil {
		return value.Value{}, err
	}
	switch a.Kind {
	case "int", "":
		return decodeValue(&a.Value, value.KindInt)
	case "float":
		return decodeValue(&a.Value, value.KindFloat)
	case "text":
		return decodeValue(&a.Value, value.KindText)
	}
	return value.Value{}, fmt.Errorf("unknown value kind %q", a.Kind)
}

// MarshalSchema renders app as YAML schema source. Declared layouts are
// written only when they differ from the computed one.
func MarshalSchema(app *header.Application) ([]byte, error) {
	var f schemaFile

	ids := make([]asset.ID, 0, len(app.Assets))
	for id := range app.Assets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		a := app.Assets[id]
		f.Assets = append(f.Assets, AssetEntry{
			ID:    uint32(id),
			Load:  a.Load.String(),
			Cache: a.Cache.String(),
			Index: a.Index,
		})
	}

	for _, c := range app.Components {
		ce := ComponentEntry{Name: c.Name}
		info := c.Layout()
		if info.Size != c.LayoutSize {
			ce.Size = uint64(c.LayoutSize)
		}
		if info.Align != c.LayoutAlign {
			ce.Align = uint64(c.LayoutAlign)
		}
		for _, fs := range c.Fields {
			fe := FieldEntry{Name: fs.Name, Kind: fs.Kind.String()}
			if err := encodeInitial(&fe.Initial, fs); err != nil {
				return nil, fmt.Errorf("component %s field %s: %w", c.Name, fs.Name, err)
			}
			ce.Fields = append(ce.Fields, fe)
		}
		f.Components = append(f.Components, ce)
	}
	return yaml.Marshal(&f)
}

func encodeInitial(node *yaml.Node, f ecs.FieldSchema) error {
	raw := rawValue(f.Initial)
	if f.Kind != ecs.FieldAny {
		return node.Encode(raw)
	}
	a := anyInitial{Kind: f.Initial.Kind().String()}
	if err := a.Value.Encode(raw); err != nil {
		return err
	}
	return node.Encode(a)
}

func rawValue(v value.Value) any {
	if i, ok := v.AsInt(); ok {
		return i
	}
	if f, ok := v.AsFloat(); ok {
		return f
	}
	s, _ := v.AsText()
	return s
}
