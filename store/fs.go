// Package store provides stylesheet sources for the registry: a directory of
// .css files, a SQLite table and a watcher invalidating registry entries when
// files change.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/maruel/natural"
	"go.uber.org/zap"

	"rstyle/registry"
)

// ErrNotFound is returned for sources which do not exist.
var ErrNotFound = registry.ErrNotFound

const (
	ext          = ".css"
	reportSuffix = ".report"
	scopesDir    = "scopes"
	tenantsDir   = "tenants"
	// noScope names the tenant override file of the unscoped sheet.
	noScope = "_"
)

// FS keeps stylesheet sources as files under a root directory:
//
//	<root>/base[.report].css
//	<root>/env[.report].css
//	<root>/scopes/<scope>[.report].css
//	<root>/tenants/<org>/<scope|_>[.report].css
//
// Scope and organization names are slugified, so distinct names which slugify
// to the same string share a file.
type FS struct {
	log  *zap.Logger
	root string
}

// NewFS returns a store rooted at dir. The directory does not have to exist.
func NewFS(dir string, log *zap.Logger) *FS {
	if log == nil {
		log = zap.NewNop()
	}
	return &FS{log: log.Named("store"), root: filepath.Clean(dir)}
}

// Root returns the cleaned root directory.
func (f *FS) Root() string {
	return f.root
}

// Path returns the file name of src.
func (f *FS) Path(src registry.SourceKey) string {
	return filepath.Join(f.root, filepath.FromSlash(Name(src)))
}

// Name returns the slash separated name of src relative to the store root.
// Bundles use the same names.
func Name(src registry.SourceKey) string {
	name := ""
	switch src.Kind {
	case registry.BaseDefault:
		name = "base"
	case registry.EnvDefault:
		name = "env"
	case registry.ScopeOverride:
		name = scopesDir + "/" + segment(src.Scope)
	case registry.TenantOverride:
		name = tenantsDir + "/" + segment(src.OrgID) + "/" + segment(src.Scope)
	default:
		name = src.Kind.String()
	}
	if src.Report {
		name += reportSuffix
	}
	return name + ext
}

func segment(s string) string {
	if s = slug.Make(s); s == "" {
		return noScope
	}
	return s
}

// Stat returns the modification time of src.
func (f *FS) Stat(src registry.SourceKey) (time.Time, error) {
	fi, err := os.Stat(f.Path(src))
	if err != nil {
		return time.Time{}, wrapNotExist(src, err)
	}
	if fi.IsDir() {
		return time.Time{}, fmt.Errorf("%s: is a directory", src)
	}
	return fi.ModTime(), nil
}

// Read returns the contents of src.
func (f *FS) Read(src registry.SourceKey) ([]byte, error) {
	data, err := os.ReadFile(f.Path(src))
	if err != nil {
		return nil, wrapNotExist(src, err)
	}
	return data, nil
}

// Write replaces the contents of src, creating directories as needed. The
// file is replaced atomically so readers never observe partial content.
func (f *FS) Write(src registry.SourceKey, data []byte) error {
	name := f.Path(src)
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create directory for %s: %w", src, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), ".rstyle-*")
	if err != nil {
		return fmt.Errorf("unable to write %s: %w", src, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write %s: %w", src, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to write %s: %w", src, err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		return fmt.Errorf("unable to write %s: %w", src, err)
	}
	f.log.Debug("Stylesheet source written", zap.Stringer("source", src), zap.String("path", name))
	return nil
}

// Remove deletes src.
func (f *FS) Remove(src registry.SourceKey) error {
	if err := os.Remove(f.Path(src)); err != nil {
		return wrapNotExist(src, err)
	}
	return nil
}

// List returns every source present under root in natural order of file
// names. Scope and organization names of the returned keys are slugs, so
// Path maps them back to the same files. Files outside of the layout are
// skipped.
func (f *FS) List() ([]registry.SourceKey, error) {
	type found struct {
		rel string
		key registry.SourceKey
	}
	var all []found

	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == f.root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		key, ok := f.SourceOf(path)
		if !ok {
			f.log.Debug("Skipping unexpected file", zap.String("path", path))
			return nil
		}
		all = append(all, found{rel: filepath.ToSlash(rel), key: key})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list %s: %w", f.root, err)
	}

	slices.SortFunc(all, func(a, b found) int {
		switch {
		case natural.Less(a.rel, b.rel):
			return -1
		case natural.Less(b.rel, a.rel):
			return 1
		}
		return 0
	})
	keys := make([]registry.SourceKey, 0, len(all))
	for _, fd := range all {
		keys = append(keys, fd.key)
	}
	return keys, nil
}

// SourceOf maps a file name under root back to its source key.
func (f *FS) SourceOf(path string) (registry.SourceKey, bool) {
	rel, err := filepath.Rel(f.root, filepath.Clean(path))
	if err != nil {
		return registry.SourceKey{}, false
	}
	return ParseName(filepath.ToSlash(rel))
}

// ParseName is the reverse of Name.
func ParseName(name string) (registry.SourceKey, bool) {
	rel, ok := strings.CutSuffix(name, ext)
	if !ok {
		return registry.SourceKey{}, false
	}

	var key registry.SourceKey
	if r, ok := strings.CutSuffix(rel, reportSuffix); ok {
		key.Report, rel = true, r
	}

	parts := strings.Split(rel, "/")
	switch {
	case len(parts) == 1 && parts[0] == "base":
		key.Kind = registry.BaseDefault
	case len(parts) == 1 && parts[0] == "env":
		key.Kind = registry.EnvDefault
	case len(parts) == 2 && parts[0] == scopesDir && parts[1] != noScope:
		key.Kind, key.Scope = registry.ScopeOverride, parts[1]
	case len(parts) == 3 && parts[0] == tenantsDir:
		key.Kind, key.OrgID = registry.TenantOverride, parts[1]
		if parts[2] != noScope {
			key.Scope = parts[2]
		}
	default:
		return registry.SourceKey{}, false
	}
	return key, true
}

func wrapNotExist(src registry.SourceKey, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", src, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", src, err)
}
