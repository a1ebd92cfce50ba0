package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rstyle/archive"
	"rstyle/config"
	"rstyle/css"
	"rstyle/registry"
	"rstyle/store"
	"rstyle/style"
)

// ErrNoWatch is returned by StartWatch for stores which cannot be watched.
var ErrNoWatch = errors.New("stylesheet store cannot be watched")

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
}

// OpenStyles creates the configured stylesheet store and the registry
// serving it.
func (e *LocalEnv) OpenStyles() error {
	if e.Cfg == nil {
		return errors.New("configuration is not loaded")
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	conf := &e.Cfg.Styles

	switch conf.Store {
	case config.StoreSQLite:
		s, err := store.OpenSQL(conf.Database, log)
		if err != nil {
			return err
		}
		e.sql, e.Store = s, s
	default:
		e.fs = store.NewFS(conf.Root, log)
		e.Store = e.fs
	}

	resolver := style.NewResolver(log, style.WithKnownFonts(conf.Fonts...))
	e.Registry = registry.New(e.Store, nil, log,
		registry.WithDebounce(conf.Debounce),
		registry.WithCacheCapacity(conf.CacheCapacity),
		registry.WithEvictionPolicy(conf.Eviction.Policy()),
		registry.WithResolver(resolver),
	)
	log.Debug("Stylesheet store opened", zap.String("kind", string(conf.Store)))

	if conf.Watch {
		if err := e.StartWatch(); err != nil {
			return fmt.Errorf("unable to watch stylesheet sources: %w", err)
		}
	}
	return nil
}

// CloseStyles stops watching and releases the stylesheet store.
func (e *LocalEnv) CloseStyles() error {
	err := e.StopWatch()
	e.Registry, e.Store, e.fs = nil, nil, nil
	if e.sql != nil {
		err = multierr.Append(err, e.sql.Close())
		e.sql = nil
	}
	return err
}

// StoredSources lists sources present in the store.
func (e *LocalEnv) StoredSources() ([]registry.SourceKey, error) {
	switch {
	case e.fs != nil:
		return e.fs.List()
	case e.sql != nil:
		return e.sql.List()
	}
	return nil, errors.New("stylesheet store is not open")
}

// StoreSource writes data as the content of src.
func (e *LocalEnv) StoreSource(src registry.SourceKey, data []byte) error {
	var err error
	switch {
	case e.fs != nil:
		err = e.fs.Write(src, data)
	case e.sql != nil:
		err = e.sql.Put(src, data)
	default:
		return errors.New("stylesheet store is not open")
	}
	if err != nil {
		return err
	}
	e.Registry.Invalidate(src)
	return nil
}

// SourcePath returns the file name of src for the fs store.
func (e *LocalEnv) SourcePath(src registry.SourceKey) (string, bool) {
	if e.fs == nil {
		return "", false
	}
	return e.fs.Path(src), true
}

// StartWatch starts invalidating registry entries on file changes in the
// background until StopWatch. Only the fs store can be watched. Calling it
// again while watching does nothing.
func (e *LocalEnv) StartWatch() error {
	if e.fs == nil {
		return ErrNoWatch
	}
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	if e.watchCancel != nil {
		return nil
	}

	if err := os.MkdirAll(e.fs.Root(), 0755); err != nil {
		return fmt.Errorf("unable to create stylesheet directory: %w", err)
	}
	w, err := store.NewWatcher(e.fs, notifier{env: e}, e.Log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		defer w.Close()
		err := w.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		done <- err
	}()
	e.watchCancel, e.watchDone = cancel, done
	return nil
}

// StopWatch stops the background watcher and returns its error.
func (e *LocalEnv) StopWatch() error {
	e.watchMu.Lock()
	cancel, done := e.watchCancel, e.watchDone
	e.watchCancel, e.watchDone = nil, nil
	e.watchMu.Unlock()
	if cancel == nil {
		return nil
	}
	// notifier takes watchMu, wait without holding it
	cancel()
	return <-done
}

// OnChange sets fn to be called with the number of dropped registry entries
// after every watched file change.
func (e *LocalEnv) OnChange(fn func(n int)) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	e.onChange = fn
}

type notifier struct {
	env *LocalEnv
}

func (n notifier) InvalidateFunc(pred func(registry.SourceKey) bool) int {
	cnt := n.env.Registry.InvalidateFunc(pred)

	n.env.watchMu.Lock()
	fn := n.env.onChange
	n.env.watchMu.Unlock()
	if fn != nil {
		fn(cnt)
	}
	return cnt
}

// ExportSources writes every stored source into a bundle and returns the
// number of sources written.
func (e *LocalEnv) ExportSources(fname string) (n int, err error) {
	srcs, err := e.StoredSources()
	if err != nil {
		return 0, err
	}
	w, err := archive.Create(fname)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = multierr.Append(err, w.Close())
	}()

	for _, src := range srcs {
		modified, err := e.Store.Stat(src)
		if err != nil {
			return n, err
		}
		data, err := e.Store.Read(src)
		if err != nil {
			return n, err
		}
		if err := w.Add(store.Name(src), modified, data); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// ImportSources stores every stylesheet of a bundle. Entries which do not
// name a source are skipped. Sources which cannot be parsed are skipped and
// reported in the returned error after the rest is imported.
func (e *LocalEnv) ImportSources(fname string) (n int, err error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	parser := css.NewParser(log)

	werr := archive.Walk(fname, func(name string, data []byte) error {
		src, ok := store.ParseName(name)
		if !ok {
			log.Warn("Bundle entry does not name a stylesheet source, skipping", zap.String("entry", name))
			return nil
		}
		if _, perr := parser.Parse(data, src.String()); perr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", name, perr))
			return nil
		}
		if err := e.StoreSource(src, data); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, multierr.Append(werr, err)
}
