package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/slighter12/sysprop-go/logger"
)

// reloadDelay coalesces the burst of events editors emit on save.
const reloadDelay = 100 * time.Millisecond

// Watch reloads the configuration file whenever it changes and passes the
// result to fn. The watcher is registered before Watch returns; events are
// handled on a background goroutine until ctx is cancelled. A file that fails
// to load is logged and skipped, leaving the previous configuration active.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	if fn == nil {
		return fmt.Errorf("config watch: callback cannot be nil")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	// Watch the directory so atomic rename-on-save is observed.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("config watch %s: %w", filepath.Dir(abs), err)
	}

	go watchLoop(ctx, watcher, abs, fn)
	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, fn func(*Config)) {
	defer watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			cfg, err := LoadConfig(path)
			if err != nil {
				logger.Warn("Config reload failed, keeping previous configuration", "path", path, "error", err)
				continue
			}
			logger.Info("Configuration reloaded", "path", path)
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", "path", path, "error", err)
		}
	}
}
