package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/luaconf/luaconf/pkg/sandbox"
)

// luaCallStackSize limits recursion depth inside configuration scripts.
const luaCallStackSize = 256

type luaInstance struct {
	L     *lua.LState
	value lua.LValue
}

func (i *luaInstance) active() (table, string) {
	if t, ok := i.value.(*lua.LTable); ok {
		return luaTable{t: t}, ""
	}
	return nil, i.value.Type().String()
}

func (i *luaInstance) close() {
	i.L.Close()
}

type luaTable struct {
	t *lua.LTable
}

// walk follows the table's own next() protocol: the array part first, then
// the hash part in insertion order.
func (lt luaTable) walk(fn func(key, value cell) bool) {
	key, value := lt.t.Next(lua.LNil)
	for key != lua.LNil {
		if !fn(luaCell(key), luaCell(value)) {
			return
		}
		key, value = lt.t.Next(key)
	}
}

func luaCell(v lua.LValue) cell {
	switch val := v.(type) {
	case lua.LString:
		return cell{kind: kindString, text: string(val), typeName: lua.LTString.String()}
	case lua.LNumber:
		return cell{kind: kindNumber, text: val.String(), typeName: lua.LTNumber.String()}
	default:
		return cell{kind: kindOther, typeName: v.Type().String()}
	}
}

// newLuaState creates a VM with only the base library opened and the
// sandbox applied. print, when allowed, is routed to logger.
func newLuaState(logger zerolog.Logger) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		CallStackSize:       luaCallStackSize,
		IncludeGoStackTrace: false,
	})

	L.Push(L.NewFunction(lua.OpenBase))
	L.Push(lua.LString(lua.BaseLibName))
	L.Call(1, 0)

	sandbox.ApplyLua(L, sandbox.LuaAllowList)

	if L.GetGlobal("print").Type() == lua.LTFunction {
		L.SetGlobal("print", L.NewFunction(luaPrint(logger)))
	}

	return L
}

// loadLua executes the file as a chunk and keeps its first return value.
func loadLua(ctx context.Context, path string, opts Options) (instance, error) {
	L := newLuaState(opts.Logger)
	L.SetContext(ctx)

	fn, err := L.LoadFile(path)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to compile lua chunk: %w", err)
	}

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		L.Close()
		return nil, fmt.Errorf("lua execution failed: %w", err)
	}

	value := L.Get(-1)
	L.Pop(1)
	L.RemoveContext()

	return &luaInstance{L: L, value: value}, nil
}

func luaPrint(logger zerolog.Logger) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.Get(i).String()
		}
		logger.Debug().Str("source", "script").Msg(strings.Join(parts, "\t"))
		return 0
	}
}
