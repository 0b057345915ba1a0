package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/unbundle/pkg/pipeline"
	"github.com/gnana997/unbundle/pkg/reconstructor"
)

// --- helpers ---

func testServer(t *testing.T, aliases []reconstructor.AliasMapping) *Server {
	t.Helper()
	p, err := pipeline.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return NewServer(p, aliases)
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "reconstruct_indexes":
		handler = s.handleReconstructIndexes
	case "resolve_exports":
		handler = s.handleResolveExports
	case "cascade_resolve":
		handler = s.handleCascadeResolve
	case "missing_report":
		handler = s.handleMissingReport
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// --- reconstruct_indexes ---

func TestHandleReconstructIndexes_IncludesAliasIndexes(t *testing.T) {
	// An aliased directory with no consumers and no index is only covered by
	// the alias generator; the tool must report it just like the CLI does.
	root := writeTree(t, map[string]string{
		"lib/format.ts": "export const format = (v) => String(v);\n",
		"lib/timing.ts": "export const debounce = (fn) => fn;\n",
	})
	s := testServer(t, []reconstructor.AliasMapping{{Alias: "@lib", Path: "lib"}})

	result := callTool(t, s, makeRequest("reconstruct_indexes", map[string]any{"root": root}))
	assert.False(t, result.IsError)

	var payload struct {
		Indexes []struct {
			Dir     string `json:"dir"`
			Path    string `json:"path"`
			Existed bool   `json:"existed"`
		} `json:"indexes"`
		Written bool `json:"written"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &payload))
	assert.False(t, payload.Written)

	require.Len(t, payload.Indexes, 1)
	assert.Equal(t, "lib", payload.Indexes[0].Dir)
	assert.Equal(t, "lib/index.ts", payload.Indexes[0].Path)
	assert.False(t, payload.Indexes[0].Existed)

	// Nothing was written without write=true.
	_, err := os.Stat(filepath.Join(root, "lib", "index.ts"))
	assert.True(t, os.IsNotExist(err))
}

func TestHandleReconstructIndexes_MissingRoot(t *testing.T) {
	s := testServer(t, nil)
	result := callTool(t, s, makeRequest("reconstruct_indexes", nil))
	assert.True(t, result.IsError)
}

// --- missing_report ---

func TestHandleMissingReport_ReportsUnresolvedByDir(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/app.ts":          "import { vanish } from './utils';\nvanish();\n",
		"src/utils/index.ts":  "export const present = 1;\n",
		"src/utils/format.ts": "export const format = (v) => String(v);\n",
	})
	s := testServer(t, nil)

	result := callTool(t, s, makeRequest("missing_report", map[string]any{"root": root}))
	assert.False(t, result.IsError)

	var payload struct {
		Unresolved map[string][]struct {
			Name   string `json:"Name"`
			Reason string `json:"Reason"`
		} `json:"unresolved"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &payload))
	assert.Equal(t, 1, payload.Total)
	require.Len(t, payload.Unresolved["src/utils"], 1)
	assert.Equal(t, "vanish", payload.Unresolved["src/utils"][0].Name)
}
