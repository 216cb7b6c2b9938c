// Package source supplies module images from the filesystem: file-backed
// sources for the loader and discovery of images across search paths.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/modware/mod-runtime/errors"
)

// ImageExt is the filename extension module images carry.
const ImageExt = ".mod"

// File is a loader source backed by a file on disk. Its reported length
// comes from a stat at construction time; a file that shrinks before Bytes
// reads it surfaces as a truncated image.
type File struct {
	path string
	size int
}

// Open stats path and returns a source for it.
func Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindNotFound, err,
			fmt.Sprintf("module image %s", path))
	}
	if info.IsDir() {
		return nil, errors.InvalidInput(errors.PhaseValidate,
			fmt.Sprintf("%s is a directory, not a module image", path))
	}
	return &File{path: path, size: int(info.Size())}, nil
}

// Name returns the image's base filename.
func (f *File) Name() string { return filepath.Base(f.path) }

// Path returns the full path the source was opened from.
func (f *File) Path() string { return f.path }

// Len returns the file size observed at Open.
func (f *File) Len() int { return f.size }

// Bytes reads the whole image file.
func (f *File) Bytes() ([]byte, error) {
	return os.ReadFile(f.path)
}

// Discover returns every module image under the given directories, sorted by
// path. Missing directories are skipped; discovery is about what is there,
// not what could be.
func Discover(searchPaths []string) ([]string, error) {
	var found []string
	for _, dir := range searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrap(errors.PhaseValidate, errors.KindInvalidInput, err,
				fmt.Sprintf("reading search path %s", dir))
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ImageExt {
				continue
			}
			found = append(found, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(found)
	return found, nil
}

// Find resolves an image path. An absolute path or one that exists as given
// is used directly; otherwise the search paths are tried in order.
func Find(searchPaths []string, path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", errors.NotFound(errors.PhaseValidate, "module image", path)
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.NotFound(errors.PhaseValidate, "module image", path)
}
