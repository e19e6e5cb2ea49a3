package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/fractal"
)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	path string
	fsw  *fsnotify.Watcher
}

// NewWatcher starts watching path. The containing directory is watched
// rather than the file, so editors that replace the file on save are
// still seen.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	path = filepath.Clean(path)
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	return &Watcher{path: path, fsw: fsw}, nil
}

// Run calls fn with every successfully reloaded configuration until ctx
// is done, then closes the watcher. Invalid files are logged and skipped
// so the last good configuration stays in effect.
// Run returns nil when ctx is done.
func (w *Watcher) Run(ctx context.Context, fn func(Config)) error {
	defer w.Close()
	log := fractal.Logger()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				log.Warn("config: reload rejected", "path", w.path, "error", err)
				continue
			}
			log.Info("config: reloaded", "path", w.path)
			fn(cfg)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn("config: watch error", "path", w.path, "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watch is NewWatcher followed by Run.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	w, err := NewWatcher(path)
	if err != nil {
		return err
	}
	return w.Run(ctx, fn)
}
