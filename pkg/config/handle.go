package config

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/luaconf/luaconf/pkg/config"

// Lookup results reported to a Recorder.
const (
	LookupFound     = "found"
	LookupNotFound  = "not_found"
	LookupViolation = "violation"
	LookupInvalid   = "invalid"
)

type loaderFunc func(ctx context.Context, path string, opts Options) (instance, error)

var (
	validate = validator.New()

	loaders = map[EngineKind]loaderFunc{
		EngineLua:      loadLua,
		EngineStarlark: loadStarlark,
	}
)

// Handle is a loaded configuration bound to the engine instance that
// produced it. A Handle is not safe for concurrent use.
type Handle struct {
	path    string
	engine  EngineKind
	inst    instance
	logger  zerolog.Logger
	metrics Recorder
}

// Load runs the script at path in a fresh sandboxed engine and returns a
// handle on the value it produced.
//
// The script exposes its configuration as its last value: a Lua chunk
// returns a table, a Starlark file ends with a dict expression. A
// non-table result still loads; queries then report a structural
// violation.
//
// Every failure to produce a handle is a load failure and leaves no engine
// state behind.
func Load(ctx context.Context, path string, opts Options) (*Handle, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, newError(KindInvalidArgument, "invalid load options", err).WithPath(path)
	}

	kind := opts.Engine
	if kind == "" {
		kind = EngineForPath(path)
	}
	logger := opts.Logger.With().
		Str("path", path).
		Str("engine", string(kind)).
		Logger()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "config.load",
		trace.WithAttributes(
			attribute.String("config.path", path),
			attribute.String("config.engine", string(kind)),
		),
	)
	defer span.End()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	inst, err := loaders[kind](ctx, path, Options{
		Engine:   kind,
		Timeout:  opts.Timeout,
		MaxSteps: opts.MaxSteps,
		Logger:   logger,
	})
	duration := time.Since(start)

	if err != nil {
		lerr := NewLoadFailure("failed to execute configuration script", err).WithPath(path)
		span.RecordError(lerr)
		span.SetStatus(codes.Error, lerr.Error())
		if opts.Metrics != nil {
			opts.Metrics.RecordLoad(string(kind), "failure", duration)
		}
		logger.Debug().Err(err).Dur("duration", duration).Msg("Configuration load failed")
		return nil, lerr
	}

	span.SetStatus(codes.Ok, "")
	if opts.Metrics != nil {
		opts.Metrics.RecordLoad(string(kind), "success", duration)
	}
	logger.Debug().Dur("duration", duration).Msg("Configuration loaded")

	return &Handle{
		path:    path,
		engine:  kind,
		inst:    inst,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Path returns the file the handle was loaded from.
func (h *Handle) Path() string {
	return h.path
}

// Engine returns the engine that ran the file.
func (h *Handle) Engine() EngineKind {
	return h.engine
}

// Close releases the engine instance. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.inst == nil {
		return nil
	}
	h.inst.close()
	h.inst = nil
	return nil
}

// Get returns the value stored under key.
//
// Entries are scanned in engine order. The scan stops at the first
// non-string key with a structural violation, even when a later entry
// would have matched. A matching entry whose value is neither a string nor
// a number is also a structural violation. Otherwise a missing key yields a
// not-found error.
func (h *Handle) Get(key string) (string, error) {
	value, err := h.get(key)
	h.recordLookup(err)
	return value, err
}

// Lookup is Get without the error detail.
func (h *Handle) Lookup(key string) (string, bool) {
	value, err := h.Get(key)
	return value, err == nil
}

func (h *Handle) get(key string) (string, error) {
	if key == "" {
		return "", NewInvalidArgument("key must not be empty").WithPath(h.path)
	}

	tbl, err := h.activeTable()
	if err != nil {
		return "", err
	}

	var (
		value  string
		result error = NewNotFound("key not present in configuration").WithPath(h.path).WithKey(key)
	)
	tbl.walk(func(k, v cell) bool {
		if err := checkKey(k); err != nil {
			result = err.WithPath(h.path)
			return false
		}
		if k.text != key {
			return true
		}
		if !v.scalar() {
			result = valueViolation(v).WithPath(h.path).WithKey(key)
			return false
		}
		value, result = v.text, nil
		return false
	})

	return value, result
}

// Entries returns a lazy sequence over the configuration entries in engine
// order. Every well-typed entry is yielded until the first structural
// violation, which is yielded once as an error before the sequence ends.
// Each call starts a fresh scan.
func (h *Handle) Entries() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		tbl, err := h.activeTable()
		if err != nil {
			yield(Entry{}, err)
			return
		}

		tbl.walk(func(k, v cell) bool {
			if err := checkKey(k); err != nil {
				yield(Entry{}, err.WithPath(h.path))
				return false
			}
			if !v.scalar() {
				yield(Entry{}, valueViolation(v).WithPath(h.path).WithKey(k.text))
				return false
			}
			return yield(Entry{Key: k.text, Value: v.text}, nil)
		})
	}
}

// ForEach calls fn for every entry yielded by Entries. It returns the first
// error from fn or the structural violation that ended the scan.
func (h *Handle) ForEach(fn func(Entry) error) error {
	for entry, err := range h.Entries() {
		if err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot collects all entries. On a structural violation it returns the
// entries seen before it together with the error.
func (h *Handle) Snapshot() ([]Entry, error) {
	var entries []Entry
	err := h.ForEach(func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

func (h *Handle) activeTable() (table, error) {
	if h == nil || h.inst == nil {
		return nil, NewInvalidArgument("configuration handle is closed")
	}
	tbl, typeName := h.inst.active()
	if tbl == nil {
		return nil, NewStructuralViolation(
			fmt.Sprintf("configuration value is %s, not a table", typeName),
		).WithPath(h.path)
	}
	return tbl, nil
}

func (h *Handle) recordLookup(err error) {
	if h == nil || h.metrics == nil {
		return
	}
	switch KindOf(err) {
	case "":
		h.metrics.RecordLookup(LookupFound)
	case KindNotFound:
		h.metrics.RecordLookup(LookupNotFound)
	case KindStructuralViolation:
		h.metrics.RecordLookup(LookupViolation)
	default:
		h.metrics.RecordLookup(LookupInvalid)
	}
}

func checkKey(k cell) *Error {
	if k.kind != kindString {
		return NewStructuralViolation(fmt.Sprintf("table key of type %s is not a string", k.typeName))
	}
	if k.text == "" {
		return NewStructuralViolation("table key is an empty string")
	}
	return nil
}

func valueViolation(v cell) *Error {
	return NewStructuralViolation(fmt.Sprintf("value of type %s is neither a string nor a number", v.typeName))
}
