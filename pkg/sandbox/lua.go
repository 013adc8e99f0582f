package sandbox

import (
	lua "github.com/yuin/gopher-lua"
)

// ApplyLua removes every function bound in the global table of L whose name
// is not allowed. Non-function globals such as _G and _VERSION are left
// untouched whether or not they are listed.
//
// Keys are collected during iteration and cleared afterwards, so the result
// does not depend on the table's iteration order. A state without a _G
// table is left unmodified.
//
// Removed names fail only when a script uses them.
func ApplyLua(L *lua.LState, allow AllowList) {
	globals, ok := L.GetGlobal("_G").(*lua.LTable)
	if !ok {
		return
	}

	var doomed []lua.LValue
	globals.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTFunction {
			return
		}
		name, isString := key.(lua.LString)
		if isString && allow.Allows(string(name)) {
			return
		}
		doomed = append(doomed, key)
	})

	for _, key := range doomed {
		globals.RawSet(key, lua.LNil)
	}
}

// RemainingLuaFunctions lists the names of callable globals left in L.
func RemainingLuaFunctions(L *lua.LState) []string {
	globals, ok := L.GetGlobal("_G").(*lua.LTable)
	if !ok {
		return nil
	}

	var names []string
	globals.ForEach(func(key, value lua.LValue) {
		if value.Type() == lua.LTFunction {
			names = append(names, key.String())
		}
	})
	return names
}
