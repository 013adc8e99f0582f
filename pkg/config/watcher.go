package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultReloadDelay debounces bursts of file events into one reload.
const DefaultReloadDelay = 250 * time.Millisecond

// ReloadEvent describes one reload attempt.
type ReloadEvent struct {
	// ID uniquely identifies the reload attempt.
	ID string `json:"id"`

	// Path is the watched configuration file.
	Path string `json:"path"`

	// Time is when the reload finished.
	Time time.Time `json:"time"`

	// Entries is the number of well-typed entries in the new configuration.
	Entries int `json:"entries"`

	// Err is set when the file failed to load or its table is malformed.
	// On a load failure the previous configuration stays active.
	Err error `json:"-"`
}

// Watcher keeps a configuration handle in sync with its file.
type Watcher struct {
	path        string
	opts        Options
	logger      zerolog.Logger
	reloadDelay time.Duration

	mu      sync.Mutex
	current *Handle
}

// NewWatcher loads path once and returns a watcher owning the handle.
func NewWatcher(ctx context.Context, path string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	h, err := Load(ctx, abs, opts)
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:        abs,
		opts:        opts,
		logger:      opts.Logger.With().Str("component", "config-watcher").Logger(),
		reloadDelay: DefaultReloadDelay,
		current:     h,
	}, nil
}

// SetReloadDelay changes the debounce delay. It must be called before Run.
func (w *Watcher) SetReloadDelay(d time.Duration) {
	w.reloadDelay = d
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Do runs fn with exclusive access to the active handle.
func (w *Watcher) Do(fn func(*Handle) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return NewInvalidArgument("watcher is closed").WithPath(w.path)
	}
	return fn(w.current)
}

// Reload loads the file again and swaps it in on success.
func (w *Watcher) Reload(ctx context.Context) ReloadEvent {
	event := ReloadEvent{
		ID:   uuid.NewString(),
		Path: w.path,
	}

	h, err := Load(ctx, w.path, w.opts)
	if err != nil {
		event.Err = err
		event.Time = time.Now()
		w.logger.Warn().Err(err).Str("reload_id", event.ID).Msg("Reload failed, keeping previous configuration")
		return event
	}

	entries, err := h.Snapshot()
	event.Entries = len(entries)
	event.Err = err

	w.mu.Lock()
	old := w.current
	if old == nil {
		w.mu.Unlock()
		_ = h.Close()
		event.Err = NewInvalidArgument("watcher is closed").WithPath(w.path)
		event.Time = time.Now()
		return event
	}
	w.current = h
	w.mu.Unlock()

	_ = old.Close()

	event.Time = time.Now()
	w.logger.Info().
		Str("reload_id", event.ID).
		Int("entries", event.Entries).
		Msg("Configuration reloaded")

	return event
}

// Run watches the file until ctx is cancelled, calling fn after every
// reload attempt. Editors that replace files atomically are handled by
// watching the parent directory.
func (w *Watcher) Run(ctx context.Context, fn func(ReloadEvent)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	w.logger.Info().Str("path", w.path).Msg("Started watching configuration")

	var (
		reloadTimer *time.Timer
		reloads     = make(chan struct{}, 1)
	)
	defer func() {
		if reloadTimer != nil {
			reloadTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("Configuration file changed")

			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(w.reloadDelay, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case <-reloads:
			ev := w.Reload(ctx)
			if fn != nil {
				fn(ev)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// Close releases the active handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}
