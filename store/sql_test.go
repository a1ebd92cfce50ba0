package store_test

import (
	"errors"
	"path/filepath"
	"testing"

	"rstyle/registry"
	"rstyle/store"
	"rstyle/style"
)

func openSQL(t *testing.T) *store.SQL {
	t.Helper()
	s, err := store.OpenSQL(filepath.Join(t.TempDir(), "styles.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQL failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func TestSQL_RoundTrip(t *testing.T) {
	s := openSQL(t)
	src := registry.SourceKey{Kind: registry.TenantOverride, OrgID: "acme", Scope: "admin", Report: true}

	if _, err := s.Stat(src); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Stat of missing source = %v, want ErrNotFound", err)
	}
	if _, err := s.Read(src); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Read of missing source = %v, want ErrNotFound", err)
	}

	if err := s.Put(src, []byte("Button { color: red }")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	first, err := s.Stat(src)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	if err := s.Put(src, []byte("Button { color: blue }")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	second, err := s.Stat(src)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !second.After(first) {
		t.Errorf("modification time did not advance: %v -> %v", first, second)
	}
	if data, err := s.Read(src); err != nil || string(data) != "Button { color: blue }" {
		t.Errorf("Read = %q, %v", data, err)
	}

	// the report flavor is a different source
	plain := src
	plain.Report = false
	if _, err := s.Read(plain); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Read(%v) = %v, want ErrNotFound", plain, err)
	}

	if err := s.Delete(src); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(src); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestSQL_EmptyBody(t *testing.T) {
	s := openSQL(t)
	src := registry.SourceKey{Kind: registry.BaseDefault}
	if err := s.Put(src, nil); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, err := s.Read(src)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("Read = %q, want empty", data)
	}
}

func TestSQL_List(t *testing.T) {
	s := openSQL(t)
	for _, src := range []registry.SourceKey{
		{Kind: registry.TenantOverride, OrgID: "org10"},
		{Kind: registry.TenantOverride, OrgID: "org2"},
		{Kind: registry.ScopeOverride, Scope: "page10"},
		{Kind: registry.ScopeOverride, Scope: "page9"},
		{Kind: registry.BaseDefault, Report: true},
		{Kind: registry.BaseDefault},
	} {
		if err := s.Put(src, []byte("* {}")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{
		"base",
		"base:report",
		"scope:scope=page9",
		"scope:scope=page10",
		"tenant:org=org2",
		"tenant:org=org10",
	}
	if len(keys) != len(want) {
		t.Fatalf("List = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i].String() != want[i] {
			t.Errorf("List[%d] = %v, want %s", i, keys[i], want[i])
		}
	}
}

func TestSQL_ServesRegistry(t *testing.T) {
	s := openSQL(t)
	base := registry.SourceKey{Kind: registry.BaseDefault}
	tenant := registry.SourceKey{Kind: registry.TenantOverride, OrgID: "acme"}
	if err := s.Put(base, []byte("Label { color: red }")); err != nil {
		t.Fatal(err)
	}

	reg := registry.New(s, nil, nil)
	c, err := style.ParseContext("Label")
	if err != nil {
		t.Fatal(err)
	}
	key := registry.Key{OrgID: "acme"}
	if fg, _ := reg.ResolveStyle(key, c).Foreground.Get(); fg.Hex() != "#ff0000" {
		t.Errorf("foreground = %v, want base red", fg)
	}

	if err := s.Put(tenant, []byte("Label { color: blue }")); err != nil {
		t.Fatal(err)
	}
	reg.Invalidate(tenant)
	if fg, _ := reg.ResolveStyle(key, c).Foreground.Get(); fg.Hex() != "#0000ff" {
		t.Errorf("foreground = %v, want tenant override", fg)
	}
}
