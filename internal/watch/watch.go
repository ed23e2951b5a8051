// Package watch invokes a callback whenever a file is saved.
//
// It wraps fsnotify to watch a single file through the save strategies
// editors actually use: in-place writes as well as the write-then-rename
// replacement most editors perform. Save bursts are debounced so one
// save produces one callback.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the quiet period after the last file event before
// the callback fires.
const defaultDebounce = 200 * time.Millisecond

// Options configures the watcher behavior.
type Options struct {
	Path     string                      // Path to the file to watch
	Debounce time.Duration               // Quiet period before OnChange fires; zero selects the default
	OnChange func(context.Context) error // Called once per save burst; a non-nil error stops the watcher
	Logger   *slog.Logger                // Optional logger; nil discards
}

// Watcher runs a callback each time the watched file is saved.
type Watcher struct {
	opts   Options
	target string
	dir    string
	logger *slog.Logger
}

// New creates a new Watcher with the given options.
func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	target := filepath.Clean(opts.Path)
	return &Watcher{
		opts:   opts,
		target: target,
		dir:    filepath.Dir(target),
		logger: logger,
	}
}

// Run starts watching. It blocks until the context is cancelled, the
// callback returns an error, or the underlying watcher fails. The
// watched file must already exist.
func (w *Watcher) Run(ctx context.Context) error {
	if strings.TrimSpace(w.opts.Path) == "" {
		return errors.New("no file to watch")
	}
	if w.opts.OnChange == nil {
		return errors.New("watch callback is not set")
	}
	if _, err := os.Stat(w.target); err != nil {
		return fmt.Errorf("cannot watch %s: %w", w.target, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file itself. Editors that
	// save by renaming a temporary file over the original would
	// silently detach a watch placed on the file.
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	debounce := w.opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	w.logger.Debug("watching for saves", "path", w.target, "debounce", debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			if !w.matches(event) {
				continue
			}
			w.logger.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)

		case <-timer.C:
			if err := w.opts.OnChange(ctx); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// matches reports whether an event concerns the watched file and
// represents a save. Chmod and remove events never trigger the
// callback; a removed file that is recreated triggers on the create.
func (w *Watcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
