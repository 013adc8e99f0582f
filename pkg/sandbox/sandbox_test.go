package sandbox

import (
	"slices"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.starlark.net/starlark"
)

func newBaseState(t *testing.T) *lua.LState {
	t.Helper()
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	t.Cleanup(L.Close)

	L.Push(L.NewFunction(lua.OpenBase))
	L.Push(lua.LString(lua.BaseLibName))
	L.Call(1, 0)
	return L
}

func TestAllowList(t *testing.T) {
	a := NewAllowList("b", "a", "b")

	if a.Len() != 2 {
		t.Fatalf("expected duplicates to be dropped, got %d names", a.Len())
	}
	if got := a.Names(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("expected declaration order [b a], got %v", got)
	}
	if !a.Allows("a") || a.Allows("c") {
		t.Error("unexpected Allows result")
	}

	names := a.Names()
	names[0] = "mutated"
	if !a.Allows("b") {
		t.Error("Names must return a copy")
	}
}

func TestApplyLua_RemovesOnlyDisallowedFunctions(t *testing.T) {
	L := newBaseState(t)
	L.SetGlobal("answer", lua.LNumber(42))

	ApplyLua(L, LuaAllowList)

	for _, name := range RemainingLuaFunctions(L) {
		if !LuaAllowList.Allows(name) {
			t.Errorf("function %q survived sandboxing", name)
		}
	}

	for _, name := range []string{"tostring", "pairs", "ipairs", "type", "print"} {
		if L.GetGlobal(name).Type() != lua.LTFunction {
			t.Errorf("allow-listed %q was removed", name)
		}
	}
	for _, name := range []string{"load", "loadstring", "dofile", "loadfile", "require", "pcall", "setmetatable"} {
		if L.GetGlobal(name) != lua.LNil {
			t.Errorf("expected %q to be removed", name)
		}
	}

	if L.GetGlobal("answer") != lua.LNumber(42) {
		t.Error("non-function global must be left untouched")
	}
	if _, ok := L.GetGlobal("_G").(*lua.LTable); !ok {
		t.Error("_G must be left untouched")
	}
	if L.GetGlobal("_VERSION").Type() != lua.LTString {
		t.Error("_VERSION must be left untouched")
	}
}

func TestApplyLua_EnforcedOnUse(t *testing.T) {
	L := newBaseState(t)
	ApplyLua(L, LuaAllowList)

	if err := L.DoString(`local s = tostring(123)`); err != nil {
		t.Fatalf("allow-listed call failed: %v", err)
	}

	if err := L.DoString(`return loadstring("return 1")`); err == nil {
		t.Fatal("expected calling a removed built-in to fail")
	}
}

func TestApplyLua_NoGlobalTable(t *testing.T) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	L.SetGlobal("_G", lua.LNil)
	L.SetGlobal("custom", L.NewFunction(func(*lua.LState) int { return 0 }))

	ApplyLua(L, LuaAllowList)

	if L.GetGlobal("custom").Type() != lua.LTFunction {
		t.Error("sandbox must not modify anything when _G is absent")
	}
}

func TestApplyLua_EmptyAllowList(t *testing.T) {
	L := newBaseState(t)
	ApplyLua(L, NewAllowList())

	if names := RemainingLuaFunctions(L); len(names) != 0 {
		t.Errorf("expected no callable globals, got %v", names)
	}
}

func TestStarlarkPredeclared(t *testing.T) {
	env := StarlarkPredeclared(StarlarkAllowList)

	for _, name := range StarlarkAllowList.Names() {
		if _, shadowed := env[name]; shadowed {
			t.Errorf("allow-listed %q must not be shadowed", name)
		}
	}
	for _, name := range []string{"sorted", "dir", "getattr", "hasattr"} {
		if _, shadowed := env[name]; !shadowed {
			t.Errorf("expected %q to be shadowed", name)
		}
	}
	if _, shadowed := env["None"]; shadowed {
		t.Error("non-callable universe values must not be shadowed")
	}
}

func TestStarlarkPredeclared_EnforcedOnUse(t *testing.T) {
	env := StarlarkPredeclared(StarlarkAllowList)
	thread := &starlark.Thread{Name: "test"}

	if _, err := starlark.ExecFile(thread, "ok.star", `x = str(123)`, env); err != nil {
		t.Fatalf("allow-listed call failed: %v", err)
	}

	_, err := starlark.ExecFile(thread, "bad.star", `x = sorted([3, 1])`, env)
	if err == nil {
		t.Fatal("expected calling a shadowed built-in to fail")
	}
	if !strings.Contains(err.Error(), "undefined: sorted") {
		t.Errorf("unexpected error: %v", err)
	}
}
