package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oszuidwest/zwfm-ledsync/internal/util"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 250 * time.Millisecond

// Reload re-reads the configuration file and reports whether any value
// changed. An unreadable or invalid file leaves the current values intact.
func (c *Config) Reload() (bool, error) {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return false, util.WrapError("read config", err)
	}

	next := New(c.filePath)
	if err := decode(c.filePath, data, next); err != nil {
		return false, util.WrapError("parse config", err)
	}
	next.applyDefaults()
	if err := next.validateLocked(); err != nil {
		return false, fmt.Errorf("invalid config %s: %w", c.filePath, err)
	}

	before := c.Snapshot()

	c.mu.Lock()
	c.Web = next.Web
	c.Audio = next.Audio
	c.Detection = next.Detection
	c.AGC = next.AGC
	c.Compressor = next.Compressor
	c.Smoothing = next.Smoothing
	c.DynamicFloor = next.DynamicFloor
	c.Bands = next.Bands
	c.Standby = next.Standby
	c.Notifications = next.Notifications
	c.mu.Unlock()

	return c.Snapshot() != before, nil
}

// Watch reloads the configuration whenever its file changes on disk and
// calls onChange after every reload that altered a value. Writes made by
// the setters reload to identical values and do not trigger onChange.
// Watch blocks until ctx is done.
func (c *Config) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return util.WrapError("create config watcher", err)
	}
	defer util.SafeCloseFunc(w, "config watcher")()

	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := w.Add(filepath.Dir(c.filePath)); err != nil {
		return util.WrapError("watch config directory", err)
	}

	target := filepath.Clean(c.filePath)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending = time.After(reloadDelay)

		case <-pending:
			pending = nil
			changed, err := c.Reload()
			if err != nil {
				slog.Warn("config reload failed, keeping current settings", "path", c.filePath, "error", err)
				continue
			}
			if changed {
				slog.Info("config reloaded", "path", c.filePath)
				onChange()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
