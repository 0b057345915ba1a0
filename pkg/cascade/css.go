package cascade

import "regexp"

// cssImportRe matches @import statements in both forms:
//
//	@import './theme.css';
//	@import url("./theme.css");
//
// Only quoted or url() forms are recognized; relative filtering happens in
// resolveCandidate.
var cssImportRe = regexp.MustCompile(`@import\s+(?:url\(\s*)?["']([^"')]+)["']`)

// cssImports extracts @import target URLs from stylesheet content.
func cssImports(content []byte) []string {
	var out []string
	for _, m := range cssImportRe.FindAllSubmatch(content, -1) {
		out = append(out, string(m[1]))
	}
	return out
}
