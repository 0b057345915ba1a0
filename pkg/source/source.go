// Package source supplies the in-memory file snapshot the reconstruction
// passes operate on.
package source

import (
	"path/filepath"
	"strings"
)

// File is one recovered source file. Immutable: passes read Path and
// Content and never write back through it; regenerated output is written
// separately.
type File struct {
	// Path is the file's path relative to the tree root, slash-separated.
	Path string

	// Content is the recovered text.
	Content []byte
}

// Dir returns the file's directory relative to the tree root ("." for
// root-level files).
func (f File) Dir() string {
	return filepath.ToSlash(filepath.Dir(f.Path))
}

// IsIndex reports whether the file is a directory index file
// (index.ts/tsx/js/jsx).
func (f File) IsIndex() bool {
	base := filepath.Base(f.Path)
	ext := filepath.Ext(base)
	return strings.EqualFold(strings.TrimSuffix(base, ext), "index")
}

// ByPath indexes files by their slash-separated relative path.
func ByPath(files []File) map[string]File {
	m := make(map[string]File, len(files))
	for _, f := range files {
		m[filepath.ToSlash(f.Path)] = f
	}
	return m
}
