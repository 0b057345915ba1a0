package reconstructor

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gnana997/unbundle/pkg/source"
)

// searchMatch is a successful ring-search placement.
type searchMatch struct {
	sourcePath     string
	defaultAsNamed bool
	isType         bool
}

// layout indexes the snapshot by directory for the ring search.
type layout struct {
	// filesIn holds files directly in each directory, in sorted path order.
	filesIn map[string][]source.File

	// dirs is the set of all directories.
	dirs map[string]struct{}
}

func newLayout(files []source.File) *layout {
	l := &layout{
		filesIn: make(map[string][]source.File),
		dirs:    directorySet(files),
	}
	for _, f := range files {
		d := f.Dir()
		l.filesIn[d] = append(l.filesIn[d], f)
	}
	for _, fs := range l.filesIn {
		sort.Slice(fs, func(i, j int) bool { return fs[i].Path < fs[j].Path })
	}
	return l
}

// childDirs returns the directories directly under parent, sorted.
func (l *layout) childDirs(parent string) []string {
	var out []string
	for d := range l.dirs {
		if d != parent && path.Dir(d) == parent {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// searchSymbol probes candidate directories in fixed priority order:
//
//  1. the directory itself
//  2. its src subdirectory
//  3. sibling directories and their src subdirectories
//  4. the grandparent's other children and their src subdirectories
//
// Within one candidate directory a direct named/type export match wins
// outright; failing that, a file whose basename case-insensitively equals
// the symbol and carries a default export is taken as default-as-named.
// Multiple equal candidates warn and accept the first in scan order — a
// documented limitation, never silent.
func (r *Reconstructor) searchSymbol(
	l *layout,
	dir string,
	name string,
	indexPath string,
	warnings *[]string,
) (searchMatch, bool) {
	for _, candidate := range r.candidateDirs(l, dir) {
		if match, ok := r.searchDir(l, candidate, name, indexPath, warnings); ok {
			return match, true
		}
	}
	return searchMatch{}, false
}

// candidateDirs expands the search ring for a directory.
func (r *Reconstructor) candidateDirs(l *layout, dir string) []string {
	var ring []string
	seen := make(map[string]struct{})
	add := func(d string) {
		if d == "" {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		if _, ok := l.dirs[d]; !ok {
			return
		}
		seen[d] = struct{}{}
		ring = append(ring, d)
	}

	add(dir)
	add(path.Join(dir, "src"))

	parent := path.Dir(dir)
	if parent != dir {
		for _, sibling := range l.childDirs(parent) {
			if sibling == dir {
				continue
			}
			add(sibling)
			add(path.Join(sibling, "src"))
		}

		grandparent := path.Dir(parent)
		if grandparent != parent {
			for _, uncle := range l.childDirs(grandparent) {
				if uncle == parent {
					continue
				}
				add(uncle)
				add(path.Join(uncle, "src"))
			}
		}
	}

	return ring
}

// searchDir probes the files directly in one candidate directory.
func (r *Reconstructor) searchDir(
	l *layout,
	candidate string,
	name string,
	indexPath string,
	warnings *[]string,
) (searchMatch, bool) {
	var direct []searchMatch
	var byBasename []searchMatch

	for _, f := range l.filesIn[candidate] {
		if f.Path == indexPath {
			continue // the index being regenerated cannot provide for itself
		}
		set := r.cache.LocalExports(f)

		if set.Has(name) {
			direct = append(direct, searchMatch{
				sourcePath: f.Path,
				isType:     set.HasType(name),
			})
			continue
		}

		if set.HasDefault && strings.EqualFold(basename(f.Path), name) {
			byBasename = append(byBasename, searchMatch{
				sourcePath:     f.Path,
				defaultAsNamed: true,
			})
		}
	}

	matches := direct
	if len(matches) == 0 {
		matches = byBasename
	}

	switch len(matches) {
	case 0:
		return searchMatch{}, false
	case 1:
		return matches[0], true
	default:
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = m.sourcePath
		}
		*warnings = append(*warnings, fmt.Sprintf(
			"multiple files in %q export %q, accepting first in scan order: %v",
			candidate, name, paths))
		return matches[0], true
	}
}

// basename returns the file name without directory or extension.
func basename(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
