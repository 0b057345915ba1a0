package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/unbundle/pkg/util"
)

// LoadConfig controls tree discovery.
type LoadConfig struct {
	// Include globs (doublestar syntax) relative to the root. Empty means
	// every JS/TS source file.
	Include []string

	// Exclude globs. Matching directories are pruned whole.
	Exclude []string

	// Workers bounds concurrent file reads. 0 uses util.GetOptimalPoolSize().
	Workers int

	// Logger can be nil (uses slog.Default()).
	Logger *slog.Logger
}

// DefaultLoadConfig excludes the directories bundlers and package managers
// leave behind; recovered trees routinely contain them.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		Include: []string{"**/*.{ts,tsx,js,jsx,mts,cts,mjs,cjs}"},
		Exclude: []string{"**/node_modules/**", "**/dist/**", "**/build/**", "**/.git/**"},
	}
}

// Loader reads a snapshot of a recovered tree into memory.
//
// Reads go through a shared mmap-backed FileCache and are dispatched to a
// bounded set of workers; the snapshot is sorted by path so downstream
// passes see a deterministic order regardless of read completion order.
type Loader struct {
	cache  util.FileCache
	config LoadConfig
	logger *slog.Logger
}

// NewLoader creates a loader. A nil cache gets a private default cache.
func NewLoader(cache util.FileCache, config LoadConfig) *Loader {
	if cache == nil {
		cache = util.NewFileCache(nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cache: cache, config: config, logger: logger}
}

// Load walks root and returns every matching file with its content, paths
// relative to root and slash-separated. Unreadable files are skipped with a
// warning; they contribute nothing.
func (l *Loader) Load(root string) ([]File, error) {
	paths, err := l.discover(root)
	if err != nil {
		return nil, err
	}

	workers := util.GetOptimalPoolSizeWithOverride(l.config.Workers)
	if workers > len(paths) && len(paths) > 0 {
		workers = len(paths)
	}

	jobs := make(chan string, workers*2)
	results := make(chan File, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rel := range jobs {
				content, err := l.cache.Read(filepath.Join(root, filepath.FromSlash(rel)))
				if err != nil {
					l.logger.Warn("skipping unreadable file",
						"file", rel,
						"error", err)
					continue
				}
				results <- File{Path: rel, Content: content}
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	files := make([]File, 0, len(paths))
	for f := range results {
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	l.logger.Debug("loaded source tree",
		"root", root,
		"files", len(files))

	return files, nil
}

// discover walks root applying include/exclude globs. Returns sorted
// slash-separated relative paths.
func (l *Loader) discover(root string) ([]string, error) {
	include := l.config.Include
	exclude := l.config.Exclude

	for _, pattern := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var paths []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue walking on errors.
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range exclude {
			matched, _ := doublestar.PathMatch(pattern, rel)
			if matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		if len(include) > 0 {
			matched := false
			for _, pattern := range include {
				if m, _ := doublestar.PathMatch(pattern, rel); m {
					matched = true
					break
				}
			}
			if !matched {
				return nil
			}
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
