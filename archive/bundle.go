// Package archive reads and writes stylesheet bundles: zip archives holding
// .css sources named the same way as files of the directory store.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

// WalkFunc is called for every stylesheet in a bundle with its slash
// separated name and content. If an error is returned, processing stops.
type WalkFunc func(name string, data []byte) error

// Walk visits all .css files of the bundle in archive order. Entries with
// path traversal components ("..") or absolute paths fail the walk.
func Walk(bundle string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(bundle)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || path.Ext(name) != ".css" {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", name, err)
		}
		if err := walkFn(name, data); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// isSafePath returns false for paths that could escape the store root:
// absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// Writer creates a bundle.
type Writer struct {
	f     *os.File
	zw    *zip.Writer
	names map[string]struct{}
}

// Create starts a new bundle at fname, truncating existing file.
func Create(fname string) (*Writer, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("unable to create bundle: %w", err)
	}
	return &Writer{f: f, zw: zip.NewWriter(f), names: make(map[string]struct{})}, nil
}

// Add stores data under name. Names must be unique and safe.
func (w *Writer) Add(name string, modified time.Time, data []byte) error {
	if !isSafePath(name) {
		return fmt.Errorf("bundle entry %q: unsafe path", name)
	}
	if _, exists := w.names[name]; exists {
		return fmt.Errorf("bundle entry %q: duplicate name", name)
	}
	out, err := w.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	w.names[name] = struct{}{}
	return nil
}

// Close finishes the archive.
func (w *Writer) Close() error {
	err := w.zw.Close()
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}
