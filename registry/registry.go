// Package registry loads, merges and caches stylesheets per (scope, report,
// organization) key and answers style queries against consistent snapshots.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"rstyle/cache"
	"rstyle/css"
	"rstyle/style"
)

const (
	// DefaultDebounce bounds how often source timestamps are re-read.
	DefaultDebounce = 3 * time.Second
	// DefaultCacheCapacity is the per-sheet capacity of result caches.
	DefaultCacheCapacity = 1024
)

// Options tune a Registry.
type Options struct {
	Debounce      time.Duration
	CacheCapacity int
	Policy        cache.Policy
	Clock         func() time.Time
	Resolver      *style.Resolver
}

// WithDebounce sets the minimal interval between staleness checks of one
// entry. Zero checks on every call.
func WithDebounce(d time.Duration) func(*Options) {
	return func(o *Options) { o.Debounce = d }
}

// WithCacheCapacity sets the capacity of per-context caches.
func WithCacheCapacity(n int) func(*Options) {
	return func(o *Options) { o.CacheCapacity = n }
}

// WithEvictionPolicy selects the eviction policy of per-context caches.
func WithEvictionPolicy(p cache.Policy) func(*Options) {
	return func(o *Options) { o.Policy = p }
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) func(*Options) {
	return func(o *Options) { o.Clock = now }
}

// WithResolver sets the resolver used by sheets.
func WithResolver(r *style.Resolver) func(*Options) {
	return func(o *Options) { o.Resolver = r }
}

type sourceState struct {
	key      SourceKey
	exists   bool // stat succeeded
	loaded   bool // content was read
	modified time.Time
	digest   uint64
}

// entry is immutable except for the last check time.
type entry struct {
	sheet   *Sheet // nil when no source exists
	sources []sourceState
	checked atomic.Int64 // unix nanoseconds
}

func (e *entry) dependsOn(pred func(SourceKey) bool) bool {
	for _, s := range e.sources {
		if pred(s.key) {
			return true
		}
	}
	return false
}

type failure struct {
	src      SourceKey
	modified int64
}

// Registry is safe for concurrent use.
type Registry struct {
	log    *zap.Logger
	store  Store
	parser Parser
	opts   Options

	mu      sync.RWMutex
	entries map[Key]*entry

	reported *xsync.Map[failure, struct{}]
}

// New creates a registry reading sources from store.
func New(store Store, parser Parser, log *zap.Logger, opts ...func(*Options)) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	o := Options{
		Debounce:      DefaultDebounce,
		CacheCapacity: DefaultCacheCapacity,
		Clock:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Policy == nil {
		o.Policy = cache.LRU{}
	}
	if o.Resolver == nil {
		o.Resolver = style.NewResolver(log)
	}
	if parser == nil {
		parser = css.NewParser(log)
	}
	return &Registry{
		log:      log.Named("registry"),
		store:    store,
		parser:   parser,
		opts:     o,
		entries:  make(map[Key]*entry),
		reported: xsync.NewMap[failure, struct{}](),
	}
}

// Sources returns the sources contributing to key in merge order.
func (r *Registry) Sources(key Key) []SourceKey {
	return key.Sources()
}

// Stylesheet returns the current merged snapshot for key, building or
// rebuilding it when needed. It returns nil when none of the sources exist.
func (r *Registry) Stylesheet(key Key) *Sheet {
	r.mu.RLock()
	e := r.entries[key]
	r.mu.RUnlock()

	if e != nil && (!r.due(e) || !r.stale(e)) {
		return e.sheet
	}
	return r.rebuild(key, e)
}

// ResolveStyle resolves ctx against the stylesheet of key. It returns
// style.NoStyle when no stylesheet is loaded at all.
func (r *Registry) ResolveStyle(key Key, ctx style.Context) *style.Resolved {
	sheet := r.Stylesheet(key)
	if sheet == nil {
		return style.NoStyle
	}
	return sheet.Resolve(ctx)
}

// HasMatchingRule reports whether any rule of key's stylesheet matches ctx.
func (r *Registry) HasMatchingRule(key Key, ctx style.Context) bool {
	sheet := r.Stylesheet(key)
	return sheet != nil && sheet.HasMatchingRule(ctx)
}

// HasRuleForType reports whether any rule of key's stylesheet may target
// nodes of typeName.
func (r *Registry) HasRuleForType(key Key, typeName string) bool {
	sheet := r.Stylesheet(key)
	return sheet != nil && sheet.HasRuleForType(typeName)
}

// Invalidate drops every entry built from src. The next request rebuilds.
func (r *Registry) Invalidate(src SourceKey) {
	n := r.InvalidateFunc(func(k SourceKey) bool { return k == src })
	r.log.Debug("Invalidated source", zap.Stringer("source", src), zap.Int("entries", n))
}

// InvalidateFunc drops every entry built from a source matching pred and
// returns the number of dropped entries.
func (r *Registry) InvalidateFunc(pred func(SourceKey) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, e := range r.entries {
		if e.dependsOn(pred) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// ResetAll drops every entry.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)
	r.log.Debug("Registry reset")
}

// due elects a single caller per debounce interval to check e for
// staleness.
func (r *Registry) due(e *entry) bool {
	now := r.opts.Clock().UnixNano()
	last := e.checked.Load()
	if now-last < int64(r.opts.Debounce) {
		return false
	}
	return e.checked.CompareAndSwap(last, now)
}

// stale reports whether any source of e appeared, disappeared or changed
// its modification time.
func (r *Registry) stale(e *entry) bool {
	for _, s := range e.sources {
		modified, err := r.store.Stat(s.key)
		exists := err == nil
		if exists != s.exists || (exists && !modified.Equal(s.modified)) {
			r.log.Debug("Stylesheet source changed", zap.Stringer("source", s.key))
			return true
		}
	}
	return false
}

// rebuild replaces the entry for key unless another caller has already done
// so since seen was read.
func (r *Registry) rebuild(key Key, seen *entry) *Sheet {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur := r.entries[key]; cur != seen {
		if cur != nil {
			return cur.sheet
		}
		// dropped by invalidation, build below
	}

	e := r.build(key, seen)
	r.entries[key] = e
	return e.sheet
}

func (r *Registry) build(key Key, old *entry) *entry {
	now := r.opts.Clock()

	var (
		srcs   = key.Sources()
		states = make([]sourceState, len(srcs))
		bodies = make([][]byte, len(srcs))
		errs   error
	)
	for i, src := range srcs {
		st := sourceState{key: src}
		modified, err := r.store.Stat(src)
		if err == nil {
			st.exists, st.modified = true, modified
			var data []byte
			if data, err = r.store.Read(src); err == nil {
				st.loaded, st.digest = true, xxhash.Sum64(data)
				bodies[i] = data
			}
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			r.failed(src, modified, err)
			errs = multierr.Append(errs, fmt.Errorf("unable to load %s: %w", src, err))
		}
		states[i] = st
	}

	e := &entry{sources: states}
	e.checked.Store(now.UnixNano())

	if old != nil && old.sheet != nil && sameContent(old.sources, states) {
		r.log.Debug("Stylesheet sources touched but unchanged, keeping snapshot",
			zap.Stringer("key", key), zap.Stringer("id", old.sheet.ID))
		e.sheet = old.sheet
		return e
	}

	var (
		rules    []css.Rule
		warnings []string
		loaded   int
	)
	for i, st := range states {
		if !st.loaded {
			continue
		}
		loaded++
		sheet, err := r.parser.Parse(bodies[i], st.key.String())
		if err != nil {
			r.failed(st.key, st.modified, err)
			errs = multierr.Append(errs, fmt.Errorf("unable to parse %s: %w", st.key, err))
			continue
		}
		for _, w := range sheet.Warnings {
			warnings = append(warnings, st.key.String()+": "+w)
		}
		for _, rule := range sheet.Rules {
			rule.SourceOrder = len(rules)
			rules = append(rules, rule)
		}
	}
	if errs != nil {
		r.log.Debug("Stylesheet built with errors", zap.Stringer("key", key), zap.Error(errs))
	}
	if loaded == 0 {
		r.log.Debug("No stylesheet sources", zap.Stringer("key", key))
		return e
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	e.sheet = newSheet(id, now, rules, warnings, r.opts.Resolver, &r.opts)
	r.log.Debug("Stylesheet built", zap.Stringer("key", key), zap.Stringer("id", id),
		zap.Int("sources", loaded), zap.Int("rules", len(rules)), zap.Int("warnings", len(warnings)))
	return e
}

// failed logs a source failure once per source version.
func (r *Registry) failed(src SourceKey, modified time.Time, err error) {
	f := failure{src: src}
	if !modified.IsZero() {
		f.modified = modified.UnixNano()
	}
	if _, loaded := r.reported.LoadOrStore(f, struct{}{}); loaded {
		return
	}
	r.log.Warn("Unable to load stylesheet source, ignoring", zap.Stringer("source", src), zap.Error(err))
}

func sameContent(a, b []sourceState) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].key != b[i].key || a[i].loaded != b[i].loaded || a[i].digest != b[i].digest {
			return false
		}
	}
	return true
}
