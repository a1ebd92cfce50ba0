package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rstyle/cache"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	s := cfg.Styles
	if s.Store != StoreFS {
		t.Errorf("Store = %q, want fs", s.Store)
	}
	if s.Debounce != 3*time.Second {
		t.Errorf("Debounce = %v, want 3s", s.Debounce)
	}
	if s.CacheCapacity != 1024 {
		t.Errorf("CacheCapacity = %d, want 1024", s.CacheCapacity)
	}
	if s.Eviction != EvictionLRU || s.Watch || len(s.Fonts) != 0 {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" || cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `version: 1
styles:
  store: sqlite
  database: `+filepath.Join(dir, "styles.db")+`
  debounce: 250ms
  cache_capacity: 16
  eviction: arbitrary
  fonts: ["Inter", "Fira Code"]
logging:
  console:
    level: debug
  file:
    level: debug
    destination: `+filepath.Join(dir, "rstyle.log")+`
    mode: append
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	s := cfg.Styles
	if s.Store != StoreSQLite || s.Database != filepath.Join(dir, "styles.db") {
		t.Errorf("store = %q %q", s.Store, s.Database)
	}
	if s.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v, want 250ms", s.Debounce)
	}
	if s.CacheCapacity != 16 {
		t.Errorf("CacheCapacity = %d, want 16", s.CacheCapacity)
	}
	if len(s.Fonts) != 2 || s.Fonts[1] != "Fira Code" {
		t.Errorf("Fonts = %v", s.Fonts)
	}
	if _, ok := s.Eviction.Policy().(cache.Arbitrary); !ok {
		t.Errorf("Eviction policy = %T, want cache.Arbitrary", s.Eviction.Policy())
	}
	// unspecified values keep defaults
	if s.Root != "styles" {
		t.Errorf("Root = %q, want default", s.Root)
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("file logger mode = %q", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid yaml", "version: 1\nstyles: [\n", "failed to decode"},
		{"unknown field", "version: 1\nstyles:\n  colour: red\n", "field colour not found"},
		{"bad version", "version: 2\n", "invalid configuration"},
		{"bad store", "version: 1\nstyles:\n  store: redis\n", "invalid configuration"},
		{"bad capacity", "version: 1\nstyles:\n  cache_capacity: 0\n", "invalid configuration"},
		{"bad eviction", "version: 1\nstyles:\n  eviction: fifo\n", "invalid configuration"},
		{"empty font", "version: 1\nstyles:\n  fonts: [\"\"]\n", "invalid configuration"},
		{"bad debounce", "version: 1\nstyles:\n  debounce: soon\n", "failed to decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfiguration(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfiguration() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadConfiguration() with missing file expected error")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	for _, want := range []string{"version: 1", "styles:", "logging:", "reporting:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Prepare() output does not contain %q", want)
		}
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Styles.Fonts = []string{"Inter"}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "debounce: 3s") {
		t.Errorf("Dump() must write durations as text:\n%s", data)
	}

	// dumped configuration loads back
	back, err := LoadConfiguration(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadConfiguration(dump) error = %v", err)
	}
	if back.Styles.Debounce != cfg.Styles.Debounce || len(back.Styles.Fonts) != 1 {
		t.Errorf("round trip mismatch: %+v vs %+v", back.Styles, cfg.Styles)
	}
}

func TestEvictionPolicy(t *testing.T) {
	if _, ok := EvictionLRU.Policy().(cache.LRU); !ok {
		t.Errorf("lru policy = %T", EvictionLRU.Policy())
	}
	if _, ok := EvictionPolicy("").Policy().(cache.LRU); !ok {
		t.Error("unknown policy must fall back to LRU")
	}
}
