package config_test

import (
	"testing"

	"github.com/modware/mod-runtime/alloc"
	"github.com/modware/mod-runtime/config"
	"github.com/modware/mod-runtime/errors"
)

func TestLoadBytesFull(t *testing.T) {
	src := []byte(`
loader {
  search_paths = ["./mods", "/usr/lib/mods"]
  arena_size   = 4 * mb
  strict       = true
}

module "pktdrv" {
  path     = "pktdrv.mod"
  required = true
}

module "stats" {
  path = "stats.mod"
}
`)
	cfg, err := config.LoadBytes(src, "test.hcl")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}

	if len(cfg.Loader.SearchPaths) != 2 || cfg.Loader.SearchPaths[0] != "./mods" {
		t.Errorf("search_paths = %v", cfg.Loader.SearchPaths)
	}
	if cfg.Loader.ArenaSize != 4<<20 {
		t.Errorf("arena_size = %d, want %d", cfg.Loader.ArenaSize, 4<<20)
	}
	if !cfg.Loader.Strict {
		t.Error("strict not set")
	}

	if len(cfg.Modules) != 2 {
		t.Fatalf("got %d modules", len(cfg.Modules))
	}
	if cfg.Modules[0].Name != "pktdrv" || !cfg.Modules[0].Required {
		t.Errorf("module 0 = %+v", cfg.Modules[0])
	}
	if cfg.Modules[1].Name != "stats" || cfg.Modules[1].Required {
		t.Errorf("module 1 = %+v", cfg.Modules[1])
	}
}

func TestLoadBytesDefaults(t *testing.T) {
	cfg, err := config.LoadBytes(nil, "empty.hcl")
	if err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	if cfg.Loader.ArenaSize != alloc.DefaultArenaSize {
		t.Errorf("arena_size = %d, want default", cfg.Loader.ArenaSize)
	}
	if len(cfg.Loader.SearchPaths) != 1 || cfg.Loader.SearchPaths[0] != "." {
		t.Errorf("search_paths = %v, want current directory", cfg.Loader.SearchPaths)
	}
	if len(cfg.Modules) != 0 {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestLoadBytesDuplicateModule(t *testing.T) {
	src := []byte(`
module "a" { path = "a.mod" }
module "a" { path = "b.mod" }
`)
	_, err := config.LoadBytes(src, "dup.hcl")
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestLoadBytesMissingPath(t *testing.T) {
	src := []byte(`module "a" {}`)
	_, err := config.LoadBytes(src, "nopath.hcl")
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestLoadBytesSyntaxError(t *testing.T) {
	_, err := config.LoadBytes([]byte(`loader {`), "broken.hcl")
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}
