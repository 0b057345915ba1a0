package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/unbundle/pkg/analyzer"
	"github.com/gnana997/unbundle/pkg/cascade"
	"github.com/gnana997/unbundle/pkg/reconstructor"
	"github.com/gnana997/unbundle/pkg/source"
	"github.com/gnana997/unbundle/pkg/util"
)

func (s *Server) handleReconstructIndexes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	write := req.GetBool("write", false)

	files, err := s.pipeline.LoadTree(root, source.DefaultLoadConfig())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load tree: %v", err)), nil
	}

	result := s.pipeline.Reconstructor.ReconstructAll(files, s.aliases, util.NopObserver{})

	aliasIndexes := s.pipeline.Reconstructor.GenerateAliasIndexes(files, s.aliases)
	result.Indexes = append(result.Indexes, aliasIndexes...)

	if write {
		if err := reconstructor.WriteIndexes(root, result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to write indexes: %v", err)), nil
		}
	}

	type indexSummary struct {
		Dir        string                           `json:"dir"`
		Path       string                           `json:"path"`
		Existed    bool                             `json:"existed"`
		Resolved   []string                         `json:"resolved,omitempty"`
		Unresolved []reconstructor.UnresolvedSymbol `json:"unresolved,omitempty"`
	}

	summaries := make([]indexSummary, 0, len(result.Indexes))
	for _, idx := range result.Indexes {
		sum := indexSummary{Dir: idx.Dir, Path: idx.Path, Existed: idx.Existed, Unresolved: idx.Unresolved}
		for _, r := range idx.Resolved {
			sum.Resolved = append(sum.Resolved, r.Name)
		}
		summaries = append(summaries, sum)
	}

	return jsonResult(map[string]any{
		"indexes":         summaries,
		"totalResolved":   result.TotalResolved,
		"totalUnresolved": result.TotalUnresolved,
		"warnings":        result.Warnings,
		"written":         write,
	})
}

func (s *Server) handleResolveExports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spec, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var wanted map[string]struct{}
	if raw := req.GetString("symbols", ""); raw != "" {
		wanted = make(map[string]struct{})
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				wanted[name] = struct{}{}
			}
		}
	}

	files, err := s.pipeline.LoadTree(root, source.DefaultLoadConfig())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load tree: %v", err)), nil
	}

	var rows []analyzer.ImportUsage
	for _, f := range files {
		for _, u := range s.pipeline.Analyzer.AnalyzeUsage(f.Content, f.Path) {
			if u.Source == spec {
				rows = append(rows, u)
			}
		}
	}

	missing := analyzer.Aggregate(rows, spec)
	if wanted != nil {
		for name := range missing {
			if _, ok := wanted[name]; !ok {
				delete(missing, name)
			}
		}
	}

	res := s.pipeline.Resolver.ResolveMissingExports(files, missing, spec, util.NopObserver{})

	return jsonResult(map[string]any{
		"source":   spec,
		"missing":  res.Missing,
		"warnings": res.Warnings,
	})
}

func (s *Server) handleCascadeResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bundlesDir, err := req.RequireString("bundles_dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := cascade.NewResolver(s.pipeline.Parsers, s.pipeline.Queries, cascade.Config{
		BundlesDir:    bundlesDir,
		StaticDir:     req.GetString("static_dir", ""),
		BaseURL:       req.GetString("base_url", ""),
		MaxIterations: req.GetInt("max_iterations", 0),
		Logger:        s.pipeline.Logger,
	})

	result, err := r.Resolve(ctx, util.NopObserver{})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cascade failed: %v", err)), nil
	}

	return jsonResult(result)
}

func (s *Server) handleMissingReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := s.pipeline.LoadTree(root, source.DefaultLoadConfig())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load tree: %v", err)), nil
	}

	result := s.pipeline.Reconstructor.ReconstructAll(files, s.aliases, util.NopObserver{})

	report := make(map[string][]reconstructor.UnresolvedSymbol)
	for _, idx := range result.Indexes {
		if len(idx.Unresolved) > 0 {
			report[idx.Dir] = idx.Unresolved
		}
	}

	return jsonResult(map[string]any{
		"unresolved": report,
		"total":      result.TotalUnresolved,
		"warnings":   result.Warnings,
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
