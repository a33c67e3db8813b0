package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mewah/core/internal/core/ecs"
	"github.com/mewah/core/internal/core/value"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// APIVersion is exposed to scripts as API_VERSION.
const APIVersion = 1

// Engine wraps a single gopher-lua VM bound to a World.
// Not safe for concurrent use; the stores it touches are.
type Engine struct {
	vm    *lua.LState
	world *ecs.World
	log   *zap.Logger
}

// NewEngine creates a Lua VM with the component API registered as globals.
func NewEngine(world *ecs.World, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	e := &Engine{vm: vm, world: world, log: log}

	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))
	for name, fn := range map[string]lua.LGFunction{
		"component_count": e.componentCount,
		"capacity":        e.capacity,
		"make_component":  e.makeComponent,
		"get_field":       e.getField,
		"set_field":       e.setField,
	} {
		vm.SetGlobal(name, vm.NewFunction(fn))
	}
	return e
}

// RunString executes src as a chunk.
func (e *Engine) RunString(src string) error {
	return e.vm.DoString(src)
}

// RunFile executes a single .lua file.
func (e *Engine) RunFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.log.Debug("ran lua script", zap.String("file", path))
	return nil
}

// RunPath runs path as a file, or every .lua file directly inside it in
// name order when it is a directory.
func (e *Engine) RunPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return e.RunFile(path)
	}
	return e.loadDir(path)
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.RunFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Global returns a global variable from the VM.
func (e *Engine) Global(name string) lua.LValue {
	return e.vm.GetGlobal(name)
}

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) store(L *lua.LState) *ecs.ComponentStore {
	name := L.CheckString(1)
	s, ok := e.world.StoreByName(name)
	if !ok {
		L.RaiseError("unknown component %q", name)
	}
	return s
}

// handle resolves the (name, index) arguments. Lua indices are 0-based here
// since they are the values make_component returns.
func (e *Engine) handle(L *lua.LState) ecs.SlotHandle {
	s := e.store(L)
	index := L.CheckInt(2)
	h, ok := s.GetComponent(index)
	if !ok {
		L.RaiseError("%s: no component at index %d", s.Name(), index)
	}
	return h
}

// fieldIndex accepts a field name or a 1-based position.
func fieldIndex(L *lua.LState, schema ecs.ComponentSchema, arg int) int {
	switch v := L.Get(arg).(type) {
	case lua.LString:
		i, ok := schema.FieldIndex(string(v))
		if !ok {
			L.RaiseError("%s: no field %q", schema.Name, string(v))
		}
		return i
	case lua.LNumber:
		i := int(v) - 1
		if i < 0 || i >= len(schema.Fields) || lua.LNumber(i+1) != v {
			L.RaiseError("%s: field position %v out of range", schema.Name, v)
		}
		return i
	default:
		L.ArgError(arg, "field name or position expected")
		return 0
	}
}

func (e *Engine) componentCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.store(L).Len()))
	return 1
}

func (e *Engine) capacity(L *lua.LState) int {
	L.Push(lua.LNumber(e.store(L).Capacity()))
	return 1
}

func (e *Engine) makeComponent(L *lua.LState) int {
	s := e.store(L)
	index, err := s.MakeComponent()
	if err != nil {
		L.RaiseError("%s: %v", s.Name(), err)
	}
	L.Push(lua.LNumber(index))
	return 1
}

func (e *Engine) getField(L *lua.LState) int {
	h := e.handle(L)
	i := fieldIndex(L, h.Store().Schema(), 3)
	v, err := h.Value(i)
	if err != nil {
		L.RaiseError("%v", err)
	}
	L.Push(toLua(v))
	return 1
}

func (e *Engine) setField(L *lua.LState) int {
	h := e.handle(L)
	schema := h.Store().Schema()
	i := fieldIndex(L, schema, 3)
	v, err := fromLua(L.Get(4), schema.Fields[i].Kind)
	if err != nil {
		L.RaiseError("%s.%s: %v", schema.Name, schema.Fields[i].Name, err)
	}
	if err := h.SetValue(i, v); err != nil {
		L.RaiseError("%s.%s: %v", schema.Name, schema.Fields[i].Name, err)
	}
	return 0
}

func toLua(v value.Value) lua.LValue {
	switch v.Kind() {
	case value.KindInt:
		n, _ := v.AsInt()
		return lua.LNumber(n)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return lua.LNumber(f)
	case value.KindText:
		s, _ := v.AsText()
		return lua.LString(s)
	}
	return lua.LNil
}

// fromLua converts lv for a field of the given kind. Lua has a single number
// type, so Any fields take integral numbers as Int and the rest as Float.
func fromLua(lv lua.LValue, kind ecs.FieldKind) (value.Value, error) {
	switch kind {
	case ecs.FieldInt:
		n, ok := lv.(lua.LNumber)
		if !ok || lua.LNumber(int(n)) != n {
			return value.Value{}, fmt.Errorf("integer expected, got %s", lv.Type())
		}
		return value.Int(int(n)), nil
	case ecs.FieldFloat:
		n, ok := lv.(lua.LNumber)
		if !ok {
			return value.Value{}, fmt.Errorf("number expected, got %s", lv.Type())
		}
		return value.Float(float32(n)), nil
	case ecs.FieldText:
		s, ok := lv.(lua.LString)
		if !ok {
			return value.Value{}, fmt.Errorf("string expected, got %s", lv.Type())
		}
		return value.Text(string(s)), nil
	case ecs.FieldAny:
		switch x := lv.(type) {
		case lua.LNumber:
			if lua.LNumber(int(x)) == x {
				return value.Int(int(x)), nil
			}
			return value.Float(float32(x)), nil
		case lua.LString:
			return value.Text(string(x)), nil
		}
		return value.Value{}, fmt.Errorf("number or string expected, got %s", lv.Type())
	}
	return value.Value{}, fmt.Errorf("unknown field kind %s", kind)
}
