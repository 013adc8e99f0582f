package config

import (
	"context"
	"fmt"
	"os"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/luaconf/luaconf/pkg/sandbox"
)

type starlarkInstance struct {
	value starlark.Value
}

func (i *starlarkInstance) active() (table, string) {
	if d, ok := i.value.(*starlark.Dict); ok {
		return starlarkTable{d: d}, ""
	}
	return nil, i.value.Type()
}

// close drops the result; Starlark threads hold no native resources.
func (i *starlarkInstance) close() {
	i.value = nil
}

type starlarkTable struct {
	d *starlark.Dict
}

// walk visits dict items in insertion order.
func (st starlarkTable) walk(fn func(key, value cell) bool) {
	for _, item := range st.d.Items() {
		if !fn(starlarkCell(item[0]), starlarkCell(item[1])) {
			return
		}
	}
}

func starlarkCell(v starlark.Value) cell {
	switch val := v.(type) {
	case starlark.String:
		return cell{kind: kindString, text: string(val), typeName: val.Type()}
	case starlark.Int:
		return cell{kind: kindNumber, text: val.String(), typeName: val.Type()}
	case starlark.Float:
		return cell{kind: kindNumber, text: val.String(), typeName: val.Type()}
	default:
		return cell{kind: kindOther, typeName: v.Type()}
	}
}

// loadStarlark executes the file and keeps the value of its final
// top-level expression statement. A file that does not end with an
// expression produces None.
func loadStarlark(ctx context.Context, path string, opts Options) (instance, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	f, err := syntax.Parse(path, src, 0)
	if err != nil {
		return nil, fmt.Errorf("starlark parse failed: %w", err)
	}

	var final syntax.Expr
	if n := len(f.Stmts); n > 0 {
		if stmt, ok := f.Stmts[n-1].(*syntax.ExprStmt); ok {
			final = stmt.X
			f.Stmts = f.Stmts[:n-1]
		}
	}

	predeclared := sandbox.StarlarkPredeclared(sandbox.StarlarkAllowList)

	prog, err := starlark.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, fmt.Errorf("starlark resolve failed: %w", err)
	}

	logger := opts.Logger
	thread := &starlark.Thread{
		Name: "luaconf",
		Print: func(_ *starlark.Thread, msg string) {
			logger.Debug().Str("source", "script").Msg(msg)
		},
	}
	if opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(opts.MaxSteps)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return nil, fmt.Errorf("starlark execution failed: %w", err)
	}
	globals.Freeze()

	var value starlark.Value = starlark.None
	if final != nil {
		env := make(starlark.StringDict, len(predeclared)+len(globals))
		for name, v := range predeclared {
			env[name] = v
		}
		for name, v := range globals {
			env[name] = v
		}
		value, err = starlark.EvalExpr(thread, final, env)
		if err != nil {
			return nil, fmt.Errorf("starlark execution failed: %w", err)
		}
	}

	return &starlarkInstance{value: value}, nil
}
