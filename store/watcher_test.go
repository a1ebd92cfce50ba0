package store_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"rstyle/registry"
	"rstyle/store"
)

// recorder is an Invalidator reporting which of the known sources were
// invalidated.
type recorder struct {
	known []registry.SourceKey

	mu  sync.Mutex
	hit map[registry.SourceKey]int
}

func (r *recorder) InvalidateFunc(pred func(registry.SourceKey) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, src := range r.known {
		if pred(src) {
			r.hit[src]++
			n++
		}
	}
	return n
}

func (r *recorder) hits(src registry.SourceKey) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hit[src]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startWatcher(t *testing.T, f *store.FS, inv store.Invalidator) {
	t.Helper()
	w, err := store.NewWatcher(f, inv, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx) //nolint:errcheck
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
}

func TestWatcher_InvalidatesChangedSource(t *testing.T) {
	f := store.NewFS(t.TempDir(), nil)
	base := registry.SourceKey{Kind: registry.BaseDefault}
	scope := registry.SourceKey{Kind: registry.ScopeOverride, Scope: "Admin Panel"}
	if err := f.Write(base, []byte("* {}")); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{known: []registry.SourceKey{base, scope}, hit: make(map[registry.SourceKey]int)}
	startWatcher(t, f, rec)

	if err := os.WriteFile(f.Path(base), []byte("Label { color: red }"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "base invalidation", func() bool { return rec.hits(base) > 0 })

	// scopes/ does not exist yet, the watcher has to pick up the new directory
	if err := f.Write(scope, []byte("Label { color: blue }")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "scope invalidation", func() bool { return rec.hits(scope) > 0 })
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	f := store.NewFS(t.TempDir(), nil)
	base := registry.SourceKey{Kind: registry.BaseDefault}
	rec := &recorder{known: []registry.SourceKey{base}, hit: make(map[registry.SourceKey]int)}
	startWatcher(t, f, rec)

	if err := os.WriteFile(filepath.Join(f.Root(), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.Root(), "env.css"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	// env.css is a real source but not a known one, wait for it to be
	// processed before checking base was left alone
	time.Sleep(100 * time.Millisecond)
	if n := rec.hits(base); n != 0 {
		t.Errorf("base invalidated %d times by unrelated files", n)
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	f := store.NewFS(filepath.Join(t.TempDir(), "missing"), nil)
	if _, err := store.NewWatcher(f, &recorder{}, nil); err == nil {
		t.Error("NewWatcher on missing root must fail")
	}
}

func TestWatcher_RegistrySeesEditsImmediately(t *testing.T) {
	f := store.NewFS(t.TempDir(), nil)
	base := registry.SourceKey{Kind: registry.BaseDefault}
	if err := f.Write(base, []byte("Label { color: red }")); err != nil {
		t.Fatal(err)
	}
	// debounce long enough that only invalidation can expose the edit
	reg := registry.New(f, nil, nil, registry.WithDebounce(time.Hour))
	first := reg.Stylesheet(registry.Key{})
	if first == nil {
		t.Fatal("Stylesheet() = nil")
	}
	startWatcher(t, f, reg)

	if err := f.Write(base, []byte("Label { color: blue }")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "rebuilt stylesheet", func() bool {
		return reg.Stylesheet(registry.Key{}) != first
	})
}
