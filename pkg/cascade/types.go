// Package cascade materializes transitively referenced bundle files,
// filling gaps by local copy or network fetch until a fixpoint.
package cascade

// FileSource distinguishes how a materialized file was obtained.
type FileSource string

const (
	// SourceFetched means the file was downloaded from the origin base URL.
	SourceFetched FileSource = "fetched"
	// SourceCopied means the file was copied from the local static
	// directory.
	SourceCopied FileSource = "copied"
)

// ResolvedFile records one file materialized during a cascade run.
// Immutable once created.
type ResolvedFile struct {
	// URL is the origin URL the file was (or would have been) fetched
	// from. Empty for copied files.
	URL string

	// LocalPath is the file's path relative to the bundles directory.
	LocalPath string

	// ContentType is the response content type for fetched files, or a
	// guess from the extension for copied files.
	ContentType string

	// Size is the materialized byte count.
	Size int64

	Source FileSource

	// HasSourceMap reports whether a .map sibling was materialized
	// alongside the file.
	HasSourceMap bool
}

// Result aggregates one cascade run.
type Result struct {
	FetchedFiles int
	CopiedFiles  int
	FailedFiles  int

	// Iterations is the number of scan+materialize rounds executed,
	// including the final round that found nothing new.
	Iterations int

	ResolvedFiles []ResolvedFile

	// Warnings records fetch failures and unresolvable references. Never
	// fatal: the cascade runs to fixpoint regardless.
	Warnings []string
}
