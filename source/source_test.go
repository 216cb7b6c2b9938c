package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/modware/mod-runtime/errors"
	"github.com/modware/mod-runtime/loader"
	"github.com/modware/mod-runtime/mod"
	"github.com/modware/mod-runtime/source"
)

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	img, err := mod.NewBuilder().SetLayout(6, 6, 0, 0, 1).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestOpenAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "basic.mod")

	src, err := source.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if src.Name() != "basic.mod" {
		t.Errorf("name = %q", src.Name())
	}
	if src.Len() != 96 {
		t.Errorf("len = %d, want 96", src.Len())
	}

	l := loader.New(nil)
	if _, err := l.Load(context.Background(), src); err != nil {
		t.Fatalf("Load from file: %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := source.Open(filepath.Join(t.TempDir(), "nope.mod"))
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestOpenDirectory(t *testing.T) {
	_, err := source.Open(t.TempDir())
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("expected invalid_input, got %v", err)
	}
}

func TestShrunkFileIsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "shrink.mod")

	src, err := source.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Shrink the file after the stat.
	if err := os.Truncate(path, 80); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	l := loader.New(nil)
	_, err = l.Load(context.Background(), src)
	if !errors.IsKind(err, errors.KindTruncatedImage) {
		t.Fatalf("expected truncated_image, got %v", err)
	}
}

func TestDiscover(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeImage(t, a, "one.mod")
	writeImage(t, b, "two.mod")
	if err := os.WriteFile(filepath.Join(a, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	found, err := source.Discover([]string{a, b, filepath.Join(a, "missing")})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("found %v, want 2 images", found)
	}
	for _, p := range found {
		if filepath.Ext(p) != source.ImageExt {
			t.Errorf("non-image %s discovered", p)
		}
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	path := writeImage(t, dir, "findme.mod")

	got, err := source.Find([]string{dir}, "findme.mod")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != path {
		t.Errorf("Find = %q, want %q", got, path)
	}

	if got, err := source.Find(nil, path); err != nil || got != path {
		t.Errorf("absolute Find = %q, %v", got, err)
	}

	_, err = source.Find([]string{dir}, "absent.mod")
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
