// FileCache provides read access to recovered source files through
// memory-mapped regions.
//
// A reconstruction run reads the same files many times: once during
// expectation collection, again for every ring-search probe, and again for
// namespace scans. Mapping each file once and slicing the mapped bytes is
// far cheaper than repeated os.ReadFile calls, and only accessed pages are
// resident.
//
// Safety:
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Graceful fallback to os.ReadFile when mmap fails (empty files, weird
//     filesystems)
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive loads)
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache caches file contents, memory-mapped where possible.
//
// Thread-safe: multiple goroutines can call methods concurrently.
type FileCache interface {
	// Read returns the file's content, loading and mapping it on first
	// access. The returned slice aliases the mapped region and must not be
	// mutated or retained past Close.
	Read(filePath string) ([]byte, error)

	// Invalidate drops the cached entry for filePath so the next Read
	// reloads from disk. A mapped view reflects in-place page changes but
	// never a length change, so callers that re-read files after on-disk
	// edits must invalidate first. Slices returned by earlier Reads of the
	// path become invalid. No-op for uncached paths.
	Invalidate(filePath string)

	// Size returns the number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases file descriptors.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep cached.
	// 0 means unlimited. When the limit is reached Read falls back to a
	// plain uncached os.ReadFile rather than failing.
	MaxFiles int

	// Logger for warnings. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig covers recovered trees up to ~20K files.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles: 20000,
	}
}

// FileCacheStats tracks cache performance metrics.
type FileCacheStats struct {
	FilesCached  int
	CacheHits    int64
	CacheMisses  int64
	MmapFailures int64
}

type mappedFile struct {
	data mmap.MMap
	file *os.File
}

// NewFileCache creates a new FileCache with the given config.
// A nil config uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &fileCacheImpl{
		config:   config,
		mapped:   make(map[string]*mappedFile),
		fallback: make(map[string][]byte),
		logger:   logger,
	}
}

type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	// mapped and fallback are protected by mu. Fallback entries hold files
	// that could not be mapped (zero-length files mmap with EINVAL).
	mapped   map[string]*mappedFile
	fallback map[string][]byte
	mu       sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

func (fc *fileCacheImpl) Read(filePath string) ([]byte, error) {
	// Fast path: already cached (RLock allows parallel readers).
	fc.mu.RLock()
	if mf, ok := fc.mapped[filePath]; ok {
		fc.mu.RUnlock()
		fc.recordHit()
		return mf.data, nil
	}
	if data, ok := fc.fallback[filePath]; ok {
		fc.mu.RUnlock()
		fc.recordHit()
		return data, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check: another goroutine may have loaded it while we waited.
	if mf, ok := fc.mapped[filePath]; ok {
		fc.recordHit()
		return mf.data, nil
	}
	if data, ok := fc.fallback[filePath]; ok {
		fc.recordHit()
		return data, nil
	}

	fc.recordMiss()

	// At capacity: serve uncached rather than fail the read.
	if fc.config.MaxFiles > 0 && len(fc.mapped)+len(fc.fallback) >= fc.config.MaxFiles {
		return os.ReadFile(filePath)
	}

	return fc.load(filePath)
}

// load maps the file, falling back to os.ReadFile. Caller holds mu.
func (fc *fileCacheImpl) load(filePath string) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", filePath, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %q: %w", filePath, err)
	}

	// mmap of a zero-length file fails; cache the empty content directly.
	if info.Size() == 0 {
		f.Close()
		fc.fallback[filePath] = []byte{}
		return []byte{}, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		fc.recordMmapFailure()
		fc.logger.Warn("mmap failed, falling back to ReadFile",
			"file", filePath,
			"error", err)

		data, rerr := os.ReadFile(filePath)
		if rerr != nil {
			return nil, fmt.Errorf("failed to read %q: %w", filePath, rerr)
		}
		fc.fallback[filePath] = data
		return data, nil
	}

	fc.mapped[filePath] = &mappedFile{data: m, file: f}
	return m, nil
}

func (fc *fileCacheImpl) Invalidate(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if mf, ok := fc.mapped[filePath]; ok {
		delete(fc.mapped, filePath)
		if err := mf.data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap invalidated file",
				"file", filePath,
				"error", err)
		}
		if err := mf.file.Close(); err != nil {
			fc.logger.Warn("failed to close invalidated file",
				"file", filePath,
				"error", err)
		}
		return
	}
	delete(fc.fallback, filePath)
}

func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.mapped) + len(fc.fallback)
}

func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.statsMu.Lock()
	stats := fc.stats
	fc.statsMu.Unlock()

	stats.FilesCached = fc.Size()
	return stats
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, mf := range fc.mapped {
		if err := mf.data.Unmap(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to unmap %q: %w", path, err)
		}
		if err := mf.file.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %q: %w", path, err)
		}
	}

	fc.mapped = make(map[string]*mappedFile)
	fc.fallback = make(map[string][]byte)
	return firstErr
}

func (fc *fileCacheImpl) recordHit() {
	fc.statsMu.Lock()
	fc.stats.CacheHits++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordMiss() {
	fc.statsMu.Lock()
	fc.stats.CacheMisses++
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordMmapFailure() {
	fc.statsMu.Lock()
	fc.stats.MmapFailures++
	fc.statsMu.Unlock()
}
