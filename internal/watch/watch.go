// Package watch re-runs a callback after filesystem changes settle.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long events must stop before the callback runs.
const DefaultDebounce = 250 * time.Millisecond

// Options configures Run.
type Options struct {
	Paths    []string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Run calls fn once, then again each time events under the watched paths
// go quiet for the debounce interval. Calls are never concurrent: fn runs
// on Run's goroutine and events arriving meanwhile schedule the next call.
// Paths that do not exist are skipped. Run returns nil when ctx is
// cancelled and stops early if fn returns an error.
func Run(ctx context.Context, opts Options, fn func(context.Context) error) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	watched := 0
	for _, p := range opts.Paths {
		if _, err := os.Stat(p); err != nil {
			logger.Debug("not watching missing path", "path", p)
			continue
		}
		if err := watcher.Add(p); err != nil {
			logger.Warn("failed to watch path", "path", p, "error", err)
			continue
		}
		watched++
	}
	logger.Debug("watching", "paths", watched)

	if err := fn(ctx); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("change", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			if err := fn(ctx); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
