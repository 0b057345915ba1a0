package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/cascade"
	"github.com/gnana997/unbundle/pkg/mcp"
	"github.com/gnana997/unbundle/pkg/pipeline"
	"github.com/gnana997/unbundle/pkg/reconstructor"
	"github.com/gnana997/unbundle/pkg/resolver"
	"github.com/gnana997/unbundle/pkg/source"
)

// pipelineHandle keeps the deferred Close in one place across commands.
type pipelineHandle struct {
	p *pipeline.Pipeline
}

func (h *pipelineHandle) Close() {
	if err := h.p.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "cleanup: %v\n", err)
	}
}

// cliObserver prints warnings as they surface; progress stays quiet.
type cliObserver struct{}

func (cliObserver) Progress(string, int, int) {}

func (cliObserver) Warn(message string) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "warning: %s\n", message)
}

func loadFor(root string) (Config, []source.File, *pipelineHandle, int) {
	cfg, err := loadConfig(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return cfg, nil, nil, 1
	}

	p, err := newPipeline(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return cfg, nil, nil, 1
	}

	loadCfg := source.DefaultLoadConfig()
	if len(cfg.Include) > 0 {
		loadCfg.Include = cfg.Include
	}
	if len(cfg.Exclude) > 0 {
		loadCfg.Exclude = cfg.Exclude
	}

	files, err := p.LoadTree(root, loadCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load tree: %v\n", err)
		p.Close()
		return cfg, nil, nil, 1
	}

	return cfg, files, &pipelineHandle{p}, 0
}

func runIndexes(args []string) int {
	root, ok := positional(args)
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: unbundle indexes <root> [--write]")
		return 1
	}
	write := hasFlag(args, "write")

	cfg, files, h, code := loadFor(root)
	if code != 0 {
		return code
	}
	defer h.Close()

	result := h.p.Reconstructor.ReconstructAll(files, cfg.Aliases, cliObserver{})

	aliasIndexes := h.p.Reconstructor.GenerateAliasIndexes(files, cfg.Aliases)
	result.Indexes = append(result.Indexes, aliasIndexes...)

	if write {
		if err := reconstructor.WriteIndexes(root, result); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}

	printIndexSummary(result, write)
	if result.TotalUnresolved > 0 {
		return 2
	}
	return 0
}

func printIndexSummary(result reconstructor.Result, written bool) {
	for _, idx := range result.Indexes {
		verb := "would regenerate"
		if written {
			verb = "regenerated"
		}
		fmt.Printf("%s %s (%d resolved, %d unresolved)\n",
			verb, idx.Path, len(idx.Resolved), len(idx.Unresolved))
		for _, u := range idx.Unresolved {
			color.New(color.FgRed).Printf("  unresolved: %s (%s)\n", u.Name, u.Reason)
		}
	}

	if result.TotalUnresolved == 0 {
		color.New(color.FgGreen).Printf("%d indexes, %d symbols resolved\n",
			len(result.Indexes), result.TotalResolved)
	} else {
		color.New(color.FgYellow).Printf("%d indexes, %d resolved, %d unresolved\n",
			len(result.Indexes), result.TotalResolved, result.TotalUnresolved)
	}
}

func runExports(args []string) int {
	root, ok := positional(args)
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: unbundle exports <root> --source <specifier>")
		return 1
	}
	spec, ok := flagValue(args, "source")
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: unbundle exports <root> --source <specifier>")
		return 1
	}

	_, files, h, code := loadFor(root)
	if code != 0 {
		return code
	}
	defer h.Close()

	var rows []analyzer.ImportUsage
	for _, f := range files {
		for _, u := range h.p.Analyzer.AnalyzeUsage(f.Content, f.Path) {
			if u.Source == spec {
				rows = append(rows, u)
			}
		}
	}
	if len(rows) == 0 {
		fmt.Printf("no imports of %q found\n", spec)
		return 0
	}

	missing := analyzer.Aggregate(rows, spec)
	res := h.p.Resolver.ResolveMissingExports(files, missing, spec, cliObserver{})

	for _, info := range res.Missing {
		switch info.Resolution.Kind {
		case resolver.ResolutionNamespace:
			color.New(color.FgGreen).Printf("%s: namespace re-export of %s\n",
				info.Name, info.Resolution.SourcePath)
		case resolver.ResolutionReexport:
			color.New(color.FgGreen).Printf("%s: re-export from %s\n",
				info.Name, info.Resolution.DependencySource)
		default:
			color.New(color.FgRed).Printf("%s: unresolved (%s)\n",
				info.Name, info.Resolution.Reason)
		}
	}
	return 0
}

func runCascade(args []string) int {
	bundlesDir, ok := positional(args)
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: unbundle cascade <bundlesDir> [--static-dir d] [--base-url u] [--max-iterations n]")
		return 1
	}

	cfg, err := loadConfig(bundlesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	p, err := newPipeline(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer p.Close()

	staticDir := cfg.StaticDir
	if v, ok := flagValue(args, "static-dir"); ok {
		staticDir = v
	}
	baseURL := cfg.BaseURL
	if v, ok := flagValue(args, "base-url"); ok {
		baseURL = v
	}
	maxIterations := 0
	if v, ok := flagValue(args, "max-iterations"); ok {
		if maxIterations, err = strconv.Atoi(v); err != nil {
			fmt.Fprintf(os.Stderr, "invalid --max-iterations: %v\n", err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := cascade.NewResolver(p.Parsers, p.Queries, cascade.Config{
		BundlesDir:    bundlesDir,
		StaticDir:     staticDir,
		BaseURL:       baseURL,
		MaxIterations: maxIterations,
		Logger:        p.Logger,
	})

	result, err := r.Resolve(ctx, cliObserver{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	for _, f := range result.ResolvedFiles {
		fmt.Printf("%s %s (%d bytes)\n", f.Source, f.LocalPath, f.Size)
	}
	summary := color.New(color.FgGreen)
	if result.FailedFiles > 0 {
		summary = color.New(color.FgYellow)
	}
	summary.Printf("%d iterations: %d fetched, %d copied, %d failed\n",
		result.Iterations, result.FetchedFiles, result.CopiedFiles, result.FailedFiles)
	return 0
}

func runWatch(args []string) int {
	root, ok := positional(args)
	if !ok {
		fmt.Fprintln(os.Stderr, "usage: unbundle watch <root>")
		return 1
	}

	cfg, files, h, code := loadFor(root)
	if code != 0 {
		return code
	}
	defer h.Close()

	run := func() {
		result := h.p.Reconstructor.ReconstructAll(files, cfg.Aliases, cliObserver{})
		printIndexSummary(result, false)
	}
	run()

	w, err := source.NewWatcher(root, 500*time.Millisecond, func(changed []string) {
		fmt.Printf("%d files changed, re-running\n", len(changed))
		// Mapped views keep the pre-change length; drop the changed batch so
		// the reload reads current disk content.
		for _, rel := range changed {
			h.p.FileCache.Invalidate(filepath.Join(root, filepath.FromSlash(rel)))
		}
		loadCfg := source.DefaultLoadConfig()
		if len(cfg.Include) > 0 {
			loadCfg.Include = cfg.Include
		}
		if len(cfg.Exclude) > 0 {
			loadCfg.Exclude = cfg.Exclude
		}
		reloaded, err := h.p.LoadTree(root, loadCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			return
		}
		files = reloaded
		run()
	}, h.p.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer w.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return 0
}

func runServe(args []string) int {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	p, err := newPipeline(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer p.Close()

	srv := mcp.NewServer(p, cfg.Aliases)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		return 1
	}
	return 0
}
