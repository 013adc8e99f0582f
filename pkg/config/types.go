package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EngineKind selects the embedded scripting engine used to run a
// configuration file.
type EngineKind string

const (
	// EngineLua runs the file with the gopher-lua VM.
	EngineLua EngineKind = "lua"

	// EngineStarlark runs the file with the Starlark interpreter.
	EngineStarlark EngineKind = "starlark"
)

// EngineForPath infers the engine from a file extension: ".star" selects
// Starlark, everything else Lua.
func EngineForPath(path string) EngineKind {
	if strings.EqualFold(filepath.Ext(path), ".star") {
		return EngineStarlark
	}
	return EngineLua
}

// Entry is a single validated configuration pair.
type Entry struct {
	// Key is the non-empty string key.
	Key string `json:"key" yaml:"key"`

	// Value is the string value, or a number in the engine's canonical
	// textual form.
	Value string `json:"value" yaml:"value"`
}

// Recorder receives load and lookup observations.
type Recorder interface {
	RecordLoad(engine, status string, duration time.Duration)
	RecordLookup(result string)
}

// Options tune how a configuration file is loaded.
type Options struct {
	// Engine forces a scripting engine. Empty means infer from the path.
	Engine EngineKind `validate:"omitempty,oneof=lua starlark"`

	// Timeout caps script execution. Zero means no limit.
	Timeout time.Duration `validate:"gte=0"`

	// MaxSteps caps the number of Starlark execution steps. Zero means no
	// limit. Ignored by the Lua engine.
	MaxSteps uint64

	// Logger receives diagnostics and the output of the script's print.
	Logger zerolog.Logger `validate:"-"`

	// Metrics is optional.
	Metrics Recorder `validate:"-"`
}

// valueKind is the coarse type of an engine value as seen by the extractor.
type valueKind int

const (
	kindString valueKind = iota
	kindNumber
	kindOther
)

// cell is an engine value converted to an owned Go representation.
type cell struct {
	kind     valueKind
	text     string
	typeName string
}

func (c cell) scalar() bool {
	return c.kind == kindString || c.kind == kindNumber
}

// table is a live engine table walked in the engine's native order.
// walk stops as soon as fn returns false.
type table interface {
	walk(fn func(key, value cell) bool)
}

// instance is a loaded engine owning the active configuration value.
type instance interface {
	// active returns the configuration table, or nil together with the
	// type name of whatever the script produced instead.
	active() (table, string)
	close()
}
