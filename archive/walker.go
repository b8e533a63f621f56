// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// Archive is zip file opened by Walk. It is only valid while walk is in
// progress.
type Archive struct {
	Path  string
	files map[string]*zip.File
}

// Find returns archive entry with given slash separated name. Name is
// cleaned before lookup, nil is returned when there is no such file or name
// escapes archive root.
func (a *Archive) Find(name string) *zip.File {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if !isSafePath(name) {
		return nil
	}
	return a.files[name]
}

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The file argument is the zip.File structure for file in
// archive which satisfies match condition. If an error is returned,
// processing stops.
type WalkFunc func(a *Archive, file *zip.File) error

// Walk walks all files in the archive with names starting with pattern in
// natural sort order, calling walkFn for each item. Archives with entries
// having absolute paths or path traversal components ("..") are rejected.
func Walk(archive, pattern string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	a := &Archive{Path: archive, files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() {
			a.files[name] = f
		}
	}

	names := make([]string, 0, len(a.files))
	for name := range a.files {
		if strings.HasPrefix(name, pattern) {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(x, y string) int {
		switch {
		case natural.Less(x, y):
			return -1
		case natural.Less(y, x):
			return 1
		}
		return 0
	})

	for _, name := range names {
		if err := walkFn(a, a.files[name]); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
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
