package cascade

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/unbundle/pkg/parser"
	"github.com/gnana997/unbundle/pkg/parser/queries"
	"github.com/gnana997/unbundle/pkg/util"
)

// DefaultMaxIterations bounds pathological or cyclic reference graphs.
const DefaultMaxIterations = 10

// Config parameterizes one cascade resolver.
type Config struct {
	// BundlesDir is the directory holding the materialized bundle files.
	// References are resolved to paths relative to it.
	BundlesDir string

	// StaticDir is an optional local directory searched before the
	// network. Empty disables local copies.
	StaticDir string

	// BaseURL is the origin used for fetches, e.g. "https://app.example.com".
	BaseURL string

	// MaxIterations caps the scan+materialize loop. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client

	// Logger can be nil (uses slog.Default()).
	Logger *slog.Logger
}

// Resolver discovers file references pointing outside the current bundle
// set and materializes each target, repeating to a fixpoint.
type Resolver struct {
	parserManager *parser.ParserManager
	queryManager  *queries.QueryManager
	cfg           Config
	client        *http.Client
	logger        *slog.Logger
}

// NewResolver creates a cascade resolver over an existing parser and query
// manager.
func NewResolver(pm *parser.ParserManager, qm *queries.QueryManager, cfg Config) *Resolver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		parserManager: pm,
		queryManager:  qm,
		cfg:           cfg,
		client:        client,
		logger:        logger,
	}
}

// Resolve runs the cascade loop:
//
//  1. Enumerate JS and CSS files under the bundles directory.
//  2. Extract every statically resolvable relative reference from them.
//  3. Materialize each candidate not seen before this run: already on
//     disk means done, present in the static directory means copy, else
//     fetch from the base URL.
//  4. Stop when an iteration materializes nothing new, or at the cap.
//
// The processed set is owned by this call; concurrent independent
// invocations are safe. Failed fetches become warnings and are not
// retried within the run.
func (r *Resolver) Resolve(ctx context.Context, obs util.Observer) (Result, error) {
	obs = util.EnsureObserver(obs)

	if r.cfg.BundlesDir == "" {
		return Result{}, fmt.Errorf("bundles directory is required")
	}

	var result Result
	processed := make(map[string]struct{})

	for result.Iterations < r.cfg.MaxIterations {
		result.Iterations++
		obs.Progress("cascade", result.Iterations, r.cfg.MaxIterations)

		candidates, err := r.scan(processed, &result)
		if err != nil {
			return result, err
		}

		materialized := 0
		for _, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			processed[candidate] = struct{}{}
			if r.materialize(ctx, candidate, &result) {
				materialized++
			}
		}

		if materialized == 0 {
			break
		}
	}

	r.logger.Info("cascade complete",
		"iterations", result.Iterations,
		"fetched", result.FetchedFiles,
		"copied", result.CopiedFiles,
		"failed", result.FailedFiles)

	return result, nil
}

// scan enumerates every JS/CSS file under the bundles directory and
// returns the deduplicated, sorted reference candidates not yet processed.
// All files are re-scanned each iteration: a newly materialized file may
// be referenced transitively through files present before the loop began.
func (r *Resolver) scan(processed map[string]struct{}, result *Result) ([]string, error) {
	fsys := os.DirFS(r.cfg.BundlesDir)

	jsFiles, err := doublestar.Glob(fsys, "**/*.{js,mjs,cjs,jsx}")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate bundle scripts: %w", err)
	}
	cssFiles, err := doublestar.Glob(fsys, "**/*.css")
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate bundle stylesheets: %w", err)
	}

	seen := make(map[string]struct{})
	var candidates []string

	add := func(fromFile, spec string) {
		candidate, ok := resolveCandidate(fromFile, spec)
		if !ok {
			return
		}
		if _, done := processed[candidate]; done {
			return
		}
		if _, dup := seen[candidate]; dup {
			return
		}
		seen[candidate] = struct{}{}
		candidates = append(candidates, candidate)
	}

	for _, f := range jsFiles {
		refs, err := r.scriptRefs(f)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("skipping unparsable script %s: %v", f, err))
			continue
		}
		for _, spec := range refs {
			add(f, spec)
		}
	}

	for _, f := range cssFiles {
		content, err := os.ReadFile(filepath.Join(r.cfg.BundlesDir, filepath.FromSlash(f)))
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("skipping unreadable stylesheet %s: %v", f, err))
			continue
		}
		for _, spec := range cssImports(content) {
			add(f, spec)
		}
	}

	sort.Strings(candidates)
	return candidates, nil
}

// scriptRefs extracts static imports, dynamic import() arguments, require()
// arguments, and re-export sources from one JS file. Template-literal and
// computed arguments never match the query and are skipped.
func (r *Resolver) scriptRefs(relPath string) ([]string, error) {
	content, err := os.ReadFile(filepath.Join(r.cfg.BundlesDir, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}

	lang := parser.DetectLanguage(relPath)
	isTSX := parser.IsTSXFile(relPath)

	tree, err := r.parserManager.Parse(content, lang, isTSX)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	query, err := r.queryManager.GetQuery(lang, queries.QueryTypeRefs, isTSX)
	if err != nil {
		return nil, err
	}

	matches, err := r.queryManager.ExecuteQuery(tree, query, content)
	if err != nil {
		return nil, err
	}

	var refs []string
	for _, m := range matches {
		var callFn, callArg string
		for _, c := range m.Captures {
			switch c.Name {
			case "ref.static", "ref.dynamic", "ref.reexport":
				refs = append(refs, c.Text)
			case "ref.call.fn":
				callFn = c.Text
			case "ref.call.arg":
				callArg = c.Text
			}
		}
		if callFn == "require" && callArg != "" {
			refs = append(refs, callArg)
		}
	}
	return refs, nil
}

// resolveCandidate resolves a relative specifier against its referencing
// file's directory to a bundles-relative path. Non-relative specifiers and
// references escaping the bundles directory are not candidates.
// Extensionless specifiers are assumed to be scripts.
func resolveCandidate(fromFile, spec string) (string, bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return "", false
	}
	candidate := path.Clean(path.Join(path.Dir(fromFile), spec))
	if candidate == ".." || strings.HasPrefix(candidate, "../") {
		return "", false
	}
	if path.Ext(candidate) == "" {
		candidate += ".js"
	}
	return candidate, true
}

// materialize brings one candidate into the bundles directory. Returns
// true when a new file landed on disk.
func (r *Resolver) materialize(ctx context.Context, candidate string, result *Result) bool {
	target := filepath.Join(r.cfg.BundlesDir, filepath.FromSlash(candidate))
	if _, err := os.Stat(target); err == nil {
		// Already present, nothing to do.
		return false
	}

	if r.cfg.StaticDir != "" {
		staticPath := filepath.Join(r.cfg.StaticDir, filepath.FromSlash(candidate))
		if info, err := os.Stat(staticPath); err == nil && !info.IsDir() {
			return r.copyLocal(candidate, staticPath, target, info.Size(), result)
		}
	}

	if r.cfg.BaseURL == "" {
		result.FailedFiles++
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("no local copy of %s and no base URL to fetch it from", candidate))
		return false
	}

	return r.fetch(ctx, candidate, target, result)
}

func (r *Resolver) copyLocal(candidate, staticPath, target string, size int64, result *Result) bool {
	if err := copyFile(staticPath, target); err != nil {
		result.FailedFiles++
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("failed to copy %s: %v", candidate, err))
		return false
	}

	hasMap := false
	if _, err := os.Stat(staticPath + ".map"); err == nil {
		if err := copyFile(staticPath+".map", target+".map"); err == nil {
			hasMap = true
		}
	}

	result.CopiedFiles++
	result.ResolvedFiles = append(result.ResolvedFiles, ResolvedFile{
		LocalPath:    candidate,
		ContentType:  contentTypeForExt(candidate),
		Size:         size,
		Source:       SourceCopied,
		HasSourceMap: hasMap,
	})
	r.logger.Debug("copied bundle file", "path", candidate, "hasSourceMap", hasMap)
	return true
}

func (r *Resolver) fetch(ctx context.Context, candidate, target string, result *Result) bool {
	url := strings.TrimRight(r.cfg.BaseURL, "/") + "/" + candidate

	body, contentType, err := r.get(ctx, url)
	if err != nil {
		result.FailedFiles++
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("failed to fetch %s: %v", url, err))
		return false
	}

	if err := writeFile(target, body); err != nil {
		result.FailedFiles++
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("failed to write %s: %v", candidate, err))
		return false
	}

	// Opportunistic source map for scripts. Its absence is normal.
	hasMap := false
	if isScript(candidate) {
		if mapBody, _, mapErr := r.get(ctx, url+".map"); mapErr == nil {
			if writeFile(target+".map", mapBody) == nil {
				hasMap = true
			}
		}
	}

	result.FetchedFiles++
	result.ResolvedFiles = append(result.ResolvedFiles, ResolvedFile{
		URL:          url,
		LocalPath:    candidate,
		ContentType:  contentType,
		Size:         int64(len(body)),
		Source:       SourceFetched,
		HasSourceMap: hasMap,
	})
	r.logger.Debug("fetched bundle file", "url", url, "bytes", len(body), "hasSourceMap", hasMap)
	return true
}

func (r *Resolver) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func writeFile(dst string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, body, 0o644)
}

func isScript(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return true
	}
	return false
}

func contentTypeForExt(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return "application/javascript"
	case ".css":
		return "text/css"
	case ".json", ".map":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
