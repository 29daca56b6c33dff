package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// dirWatcher turns fsnotify events under a cases directory into debounced
// change signals. New subdirectories are added as they appear.
type dirWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
	changes  chan struct{}
}

func newDirWatcher(root string, debounce time.Duration, logger *slog.Logger) (*dirWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dw := &dirWatcher{
		root:     root,
		watcher:  w,
		debounce: debounce,
		log:      logger,
		changes:  make(chan struct{}, 1),
	}
	if err := dw.addRecursive(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return dw, nil
}

// Changes delivers at most one pending signal per debounce window.
func (w *dirWatcher) Changes() <-chan struct{} { return w.changes }

func (w *dirWatcher) Close() error { return w.watcher.Close() }

func (w *dirWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Run forwards relevant events until ctx is done or the watcher is closed.
func (w *dirWatcher) Run(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				// A new folder of cases; errors mean it was a file or vanished.
				_ = w.addRecursive(ev.Name)
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", slog.String("error", err.Error()))
		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}
		}
	}
}

func (w *dirWatcher) relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	// Directories have no extension; treat them as relevant so removals of a folder rescan.
	return ext == ".json" || ext == ""
}
