package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"inlay/internal/logging"
)

// Watcher reloads the user config when the file changes on disk and hands
// the fresh snapshot to a callback. The callback rebuilds dependent
// components; in-flight work keeps whatever snapshot it captured.
type Watcher struct {
	path     string
	onChange func(*UserConfig)
}

// NewWatcher creates a watcher for the given config path.
func NewWatcher(path string, onChange func(*UserConfig)) *Watcher {
	return &Watcher{path: path, onChange: onChange}
}

// Run watches until ctx is done. Editors tend to write config via
// rename-into-place, so the parent directory is watched rather than the file
// itself, and reload events are debounced.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}

	log := logging.Get(logging.CategoryConfig)
	var pending *time.Timer
	reload := func() {
		cfg, err := Load(w.path)
		if err != nil {
			log.Error("config reload failed: %v", err)
			return
		}
		log.Info("config reloaded from %s", w.path)
		logging.ReloadConfig()
		w.onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Coalesce bursts of write events into one reload.
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(100*time.Millisecond, reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error: %v", err)
		}
	}
}
