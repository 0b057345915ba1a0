package util

import "runtime"

// GetOptimalPoolSize returns the pool size used for CPU-bound parallel work.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// The 2x factor keeps goroutines runnable while others are blocked inside
// CGO (tree-sitter parsing). The floor keeps some parallelism on small
// machines; the cap bounds memory on large ones.
//
// Used for both the parser pool (parsers per language) and the file loader
// worker count — the two MUST match or workers block waiting for parsers.
func GetOptimalPoolSize() int {
	cores := runtime.NumCPU()
	poolSize := cores * 2

	if poolSize < 4 {
		poolSize = 4
	}
	if poolSize > 32 {
		poolSize = 32
	}

	return poolSize
}

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (for testing/tuning).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
