package archive

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeZip(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", name, err)
		}
	}
	w.Close()
	zipFile.Close()
	return zipPath
}

func TestWriterAndWalk(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "styles.zip")
	w, err := Create(bundle)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	files := []struct{ name, content string }{
		{"base.css", "Button { color: red }"},
		{"tenants/acme/_.css", "Button { color: blue }"},
	}
	for _, f := range files {
		if err := w.Add(f.name, stamp, []byte(f.content)); err != nil {
			t.Fatalf("Add(%s) error = %v", f.name, err)
		}
	}
	if err := w.Add("base.css", stamp, nil); err == nil {
		t.Error("Add() of duplicate name expected error")
	}
	if err := w.Add("../base.css", stamp, nil); err == nil {
		t.Error("Add() of unsafe name expected error")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got []string
	err = Walk(bundle, func(name string, data []byte) error {
		got = append(got, name+"="+string(data))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(got) != 2 || got[0] != "base.css=Button { color: red }" || got[1] != "tenants/acme/_.css=Button { color: blue }" {
		t.Errorf("Walk() visited %v", got)
	}
}

func TestWalk_SkipsOtherFiles(t *testing.T) {
	bundle := writeZip(t, map[string]string{
		"README.md":        "read me",
		"scopes/admin.css": "Label { color: red }",
		"scopes/":          "",
	})
	var visited []string
	if err := Walk(bundle, func(name string, _ []byte) error {
		visited = append(visited, name)
		return nil
	}); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(visited) != 1 || visited[0] != "scopes/admin.css" {
		t.Errorf("visited = %v", visited)
	}
}

func TestWalk_Errors(t *testing.T) {
	if err := Walk(filepath.Join(t.TempDir(), "missing.zip"), func(string, []byte) error { return nil }); err == nil {
		t.Error("Walk() of missing bundle expected error")
	}

	bundle := writeZip(t, map[string]string{"../../etc/evil.css": "x"})
	if err := Walk(bundle, func(string, []byte) error { return nil }); err == nil {
		t.Error("Walk() expected error for unsafe entry")
	}

	stop := errors.New("stop")
	bundle = writeZip(t, map[string]string{"base.css": "x"})
	if err := Walk(bundle, func(string, []byte) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want callback error", err)
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"base.css", true},
		{"tenants/acme/_.css", true},
		{"/etc/base.css", false},
		{`\windows\base.css`, false},
		{"scopes/../../base.css", false},
		{"..", false},
		{"a..b.css", true},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
