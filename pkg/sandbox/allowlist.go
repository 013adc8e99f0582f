// Package sandbox restricts the global environment of an embedded script
// engine to an explicit allow-list of callable built-ins.
package sandbox

import "slices"

// AllowList is an ordered, immutable set of built-in names that stay
// callable after sandboxing.
type AllowList struct {
	names []string
}

// LuaAllowList is the set of Lua base-library functions a configuration
// script may call.
var LuaAllowList = NewAllowList(
	"assert", "ipairs", "next", "pairs", "print", "tonumber", "tostring", "type",
)

// StarlarkAllowList is the Starlark counterpart of LuaAllowList: string and
// number conversion, type inspection, printing and plain iteration helpers.
var StarlarkAllowList = NewAllowList(
	"enumerate", "fail", "float", "int", "len", "print", "range", "str", "type",
)

// NewAllowList returns an allow-list holding names in the given order.
// Duplicates are dropped.
func NewAllowList(names ...string) AllowList {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return AllowList{names: out}
}

// Allows reports whether name may remain callable.
func (a AllowList) Allows(name string) bool {
	return slices.Contains(a.names, name)
}

// Names returns a copy of the allowed names in declaration order.
func (a AllowList) Names() []string {
	return slices.Clone(a.names)
}

// Len returns the number of allowed names.
func (a AllowList) Len() int {
	return len(a.names)
}
