package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Archive(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	stored := filepath.Join(dir, "base.css")
	if err := os.WriteFile(stored, []byte("Button { color: red }"), 0644); err != nil {
		t.Fatal(err)
	}
	sheets := filepath.Join(dir, "styles")
	if err := os.MkdirAll(filepath.Join(sheets, "scopes"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sheets, "scopes", "admin.css"), []byte("Label {}"), 0644); err != nil {
		t.Fatal(err)
	}

	r.Store("source.css", stored)
	r.StoreData("merged.css", []byte("/* 0 */ Button {}"))
	if err := r.StoreCopy("styles", sheets); err != nil {
		t.Fatalf("StoreCopy() error: %v", err)
	}
	r.Store("missing", filepath.Join(dir, "missing.txt"))

	// later changes must not affect the copy
	if err := os.WriteFile(filepath.Join(sheets, "scopes", "admin.css"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	temps := r.temps

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	files := readArchive(t, conf.Destination)
	for name, want := range map[string]string{
		"source.css":              "Button { color: red }",
		"merged.css":              "/* 0 */ Button {}",
		"styles/scopes/admin.css": "Label {}",
	} {
		if got, ok := files[name]; !ok || got != want {
			t.Errorf("archive[%s] = %q (present %v), want %q", name, got, ok, want)
		}
	}
	if _, ok := files["MANIFEST"]; !ok {
		t.Error("archive has no MANIFEST")
	}
	if _, ok := files["missing"]; ok {
		t.Error("missing file must be skipped")
	}
	for _, tmp := range temps {
		if _, err := os.Stat(tmp); !os.IsNotExist(err) {
			t.Errorf("temporary copy %s was not removed", tmp)
		}
	}
	// stored originals stay
	if _, err := os.Stat(stored); err != nil {
		t.Errorf("stored file removed: %v", err)
	}
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("c", nil)
	if err := r.StoreCopy("d", "e"); err != nil {
		t.Errorf("StoreCopy on nil report: %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("log", "/tmp/a.log")
	r.Store("log", "/tmp/a.log") // same path is fine

	defer func() {
		if recover() == nil {
			t.Error("expected panic on conflicting Store")
		}
	}()
	r.Store("log", "/tmp/b.log")
}
