package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"rstyle/registry"
)

// Invalidator drops cached stylesheets built from matching sources.
// *registry.Registry implements it.
type Invalidator interface {
	InvalidateFunc(pred func(registry.SourceKey) bool) int
}

// Watcher invalidates registry entries as soon as files of an FS store
// change, so edits become visible without waiting for the debounce interval.
type Watcher struct {
	log   *zap.Logger
	store *FS
	inv   Invalidator
	w     *fsnotify.Watcher
}

// NewWatcher starts watching the root of store and all of its
// subdirectories. The root directory must exist.
func NewWatcher(store *FS, inv Invalidator, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}
	w := &Watcher{log: log.Named("watcher"), store: store, inv: inv, w: fw}
	if err := w.addTree(store.Root()); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching. Run returns after Close.
func (w *Watcher) Close() error {
	return w.w.Close()
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("Unable to watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
			return
		}
	}
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}
	w.invalidate(ev.Name)
}

func (w *Watcher) invalidate(path string) {
	if !strings.HasSuffix(path, ext) {
		return
	}
	path = filepath.Clean(path)
	n := w.inv.InvalidateFunc(func(src registry.SourceKey) bool {
		return w.store.Path(src) == path
	})
	w.log.Debug("Stylesheet file changed", zap.String("path", path), zap.Int("entries", n))
}

// addTree watches dir and its subdirectories. Files already present in
// directories created after the watch started are invalidated, their
// creation events may have been missed.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != w.store.Root() {
				return nil
			}
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		if !d.IsDir() {
			if dir != w.store.Root() {
				w.invalidate(path)
			}
			return nil
		}
		if err := w.w.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		return nil
	})
}
