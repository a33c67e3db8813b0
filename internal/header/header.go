// Package header reads and writes the compiled application header: the
// asset directives and component schemas an application ships with.
//
// A header file is one frame (see ReadFrame) whose payload is, in order:
//
//	u64 asset count, then per asset ordered by id:
//	    u32 id, u32 load, u32 cache kind, [u64 secs, u32 nanos if cached], u64 index
//	u64 component count, then per component:
//	    str name, u64 size, u64 align, u64 field count, then per field:
//	        str name, u32 kind, initial value
//
// Strings are a u64 byte length followed by UTF-8. Int initials are i64,
// float initials f32 bits, text initials a string, any initials a u32 value
// kind followed by that kind's encoding.
package header

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/mewah/core/internal/asset"
	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/core/value"
	"go.uber.org/zap"
)

var ErrTrailingBytes = errors.New("trailing bytes after header")

// Application is the decoded header of a compiled application.
type Application struct {
	Assets     map[asset.ID]asset.Header
	Components []ecs.ComponentSchema
}

// Decode reads one framed header from r.
func Decode(r io.Reader) (*Application, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(payload)
}

// Encode writes app to w as one frame.
func Encode(w io.Writer, app *Application) error {
	return WriteFrame(w, Marshal(app))
}

// Build converts every component schema into an empty store.
func (app *Application) Build(log *zap.Logger) (*ecs.World, error) {
	return ecs.NewWorld(app.Components, log)
}

// Marshal encodes the header payload without the frame prefix.
func Marshal(app *Application) []byte {
	w := NewWriter()

	ids := make([]asset.ID, 0, len(app.Assets))
	for id := range app.Assets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	w.WriteU64(uint64(len(ids)))
	for _, id := range ids {
		writeAsset(w, id, app.Assets[id])
	}

	w.WriteU64(uint64(len(app.Components)))
	for _, c := range app.Components {
		writeComponent(w, c)
	}
	return w.Bytes()
}

// Unmarshal decodes a header payload. Every byte must be consumed.
func Unmarshal(payload []byte) (*Application, error) {
	r := NewReader(payload)
	app := &Application{}

	n := r.ReadLen(20)
	app.Assets = make(map[asset.ID]asset.Header, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		id, h, err := readAsset(r)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", i, err)
		}
		app.Assets[id] = h
	}

	n = r.ReadLen(32)
	app.Components = make([]ecs.ComponentSchema, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		c, err := readComponent(r)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		app.Components = append(app.Components, c)
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, r.Remaining())
	}
	return app, nil
}

func writeAsset(w *Writer, id asset.ID, h asset.Header) {
	w.WriteU32(uint32(id))
	w.WriteU32(uint32(h.Load))
	w.WriteU32(uint32(h.Cache.Kind))
	if h.Cache.Kind == asset.Cache {
		w.WriteU64(uint64(h.Cache.TTL / time.Second))
		w.WriteU32(uint32(h.Cache.TTL % time.Second))
	}
	w.WriteU64(h.Index)
}

func readAsset(r *Reader) (asset.ID, asset.Header, error) {
	id := asset.ID(r.ReadU32())
	var h asset.Header
	h.Load = asset.LoadDirective(r.ReadU32())
	if h.Load > asset.LoadWhenNeeded {
		return 0, h, fmt.Errorf("unknown load directive %d", h.Load)
	}
	h.Cache.Kind = asset.CacheKind(r.ReadU32())
	switch h.Cache.Kind {
	case asset.DontCache, asset.CacheForever:
	case asset.Cache:
		secs := r.ReadU64()
		nanos := r.ReadU32()
		if secs > math.MaxInt64/uint64(time.Second) || nanos >= uint32(time.Second) {
			return 0, h, fmt.Errorf("cache duration %ds %dns out of range", secs, nanos)
		}
		h.Cache.TTL = time.Duration(secs)*time.Second + time.Duration(nanos)
	default:
		return 0, h, fmt.Errorf("unknown cache directive %d", h.Cache.Kind)
	}
	h.Index = r.ReadU64()
	return id, h, r.Err()
}

func writeComponent(w *Writer, c ecs.ComponentSchema) {
	w.WriteS(c.Name)
	w.WriteU64(uint64(c.LayoutSize))
	w.WriteU64(uint64(c.LayoutAlign))
	w.WriteU64(uint64(len(c.Fields)))
	for _, f := range c.Fields {
		w.WriteS(f.Name)
		w.WriteU32(uint32(f.Kind))
		if f.Kind == ecs.FieldAny {
			w.WriteU32(uint32(f.Initial.Kind()))
		}
		writeValue(w, f.Initial)
	}
}

func writeValue(w *Writer, v value.Value) {
	switch v.Kind() {
	case value.KindFloat:
		f, _ := v.AsFloat()
		w.WriteF32(f)
	case value.KindText:
		s, _ := v.AsText()
		w.WriteS(s)
	default:
		i, _ := v.AsInt()
		w.WriteI64(int64(i))
	}
}

func readComponent(r *Reader) (ecs.ComponentSchema, error) {
	var c ecs.ComponentSchema
	c.Name = r.ReadS()
	size, align := r.ReadU64(), r.ReadU64()
	if size > math.MaxInt || align > math.MaxInt {
		return c, fmt.Errorf("layout %d/%d out of range", size, align)
	}
	c.LayoutSize, c.LayoutAlign = uintptr(size), uintptr(align)

	n := r.ReadLen(16)
	c.Fields = make([]ecs.FieldSchema, 0, n)
	for i := 0; i < n && r.Err() == nil; i++ {
		var f ecs.FieldSchema
		f.Name = r.ReadS()
		f.Kind = ecs.FieldKind(r.ReadU32())
		kind := value.KindInt
		switch f.Kind {
		case ecs.FieldInt:
		case ecs.FieldFloat:
			kind = value.KindFloat
		case ecs.FieldText:
			kind = value.KindText
		case ecs.FieldAny:
			kind = value.Kind(r.ReadU32())
			if kind > value.KindText {
				return c, fmt.Errorf("field %d: unknown value kind %d", i, kind)
			}
		default:
			return c, fmt.Errorf("field %d: unknown field kind %d", i, f.Kind)
		}
		f.Initial = readValue(r, kind)
		c.Fields = append(c.Fields, f)
	}
	return c, r.Err()
}

func readValue(r *Reader, kind value.Kind) value.Value {
	switch kind {
	case value.KindFloat:
		return value.Float(r.ReadF32())
	case value.KindText:
		return value.Text(r.ReadS())
	default:
		return value.Int(int(r.ReadI64()))
	}
}
