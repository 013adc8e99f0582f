package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// StarlarkPredeclared returns a predeclared environment that shadows every
// callable universe built-in not present in allow.
//
// Starlark's universe is process-wide and cannot be edited per thread, so
// each disallowed name is rebound to a builtin that fails on first call with
// the same "undefined" condition a missing Lua global produces.
func StarlarkPredeclared(allow AllowList) starlark.StringDict {
	env := make(starlark.StringDict, len(starlark.Universe))
	for name, value := range starlark.Universe {
		if _, callable := value.(starlark.Callable); !callable {
			continue
		}
		if allow.Allows(name) {
			continue
		}
		env[name] = starlark.NewBuiltin(name, undefinedBuiltin)
	}
	return env
}

func undefinedBuiltin(_ *starlark.Thread, b *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return nil, fmt.Errorf("undefined: %s is not available in the sandbox", b.Name())
}
