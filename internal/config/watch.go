package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/vodum/console/internal/watcher"
)

// WatchDebounce is how long the watcher waits for a save to settle.
const WatchDebounce = 500 * time.Millisecond

// Watch starts watching the config file at path (DefaultPath if empty).
// onChange receives the reloaded config after every change; onError, if
// set, receives reload and watch errors. The returned func stops watching.
func Watch(path string, onChange func(*Config), onError func(error)) (func(), error) {
	if path == "" {
		path = DefaultPath()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}

	w, err := watcher.New(func([]string) {
		cfg, err := LoadOrDefault(absPath)
		if err != nil {
			report(fmt.Errorf("reloading config: %w", err))
			return
		}
		if onChange != nil {
			onChange(cfg)
		}
	}, watcher.WithDebounceDuration(WatchDebounce), watcher.WithErrorHandler(report))
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}

	if err := w.Add(absPath); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching config path %s: %w", absPath, err)
	}

	return func() {
		w.Close()
	}, nil
}
