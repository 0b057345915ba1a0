package reconstructor

import (
	"path"
	"sort"
	"strings"

	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/source"
)

// GenerateAliasIndexes creates star-export indexes for alias target
// directories that have module files but no index at all. Unlike the main
// reconstruction pass this needs no consumer evidence: an aliased directory
// is a package boundary by configuration, so every module file in it is
// re-exported wholesale.
//
// Directories that already carry an index are left to ReconstructAll.
func (r *Reconstructor) GenerateAliasIndexes(files []source.File, aliases []AliasMapping) []RegeneratedIndex {
	l := newLayout(files)

	var out []RegeneratedIndex
	seen := make(map[string]struct{})

	for _, a := range aliases {
		dir := path.Clean(a.Path)
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}

		if _, exists := findIndex(l, dir); exists {
			continue
		}

		var specifiers []string
		for _, f := range l.filesIn[dir] {
			if !parser.IsSourceFile(f.Path) {
				continue
			}
			base := parser.StripSourceExtension(path.Base(f.Path))
			specifiers = append(specifiers, "./"+base)
		}
		if len(specifiers) == 0 {
			continue
		}
		sort.Strings(specifiers)

		var b strings.Builder
		for _, spec := range specifiers {
			b.WriteString("export * from '" + spec + "';\n")
		}

		out = append(out, RegeneratedIndex{
			Dir:     dir,
			Path:    path.Join(dir, indexFileName(l, dir)),
			Existed: false,
			Content: b.String(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out
}
