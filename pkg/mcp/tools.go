package mcp

import "github.com/mark3labs/mcp-go/mcp"

func reconstructIndexesTool() mcp.Tool {
	return mcp.NewTool("reconstruct_indexes",
		mcp.WithDescription("Regenerate directory index files so every symbol consumers import from a directory is exported by its index. Reports resolved and unresolved symbols per directory."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Root directory of the recovered source tree"),
		),
		mcp.WithBoolean("write",
			mcp.Description("Write regenerated indexes back to disk (default: report only)"),
		),
	)
}

func resolveExportsTool() mcp.Tool {
	return mcp.NewTool("resolve_exports",
		mcp.WithDescription("Resolve missing exports for one import specifier by analyzing how consumers use the imported symbols. Returns namespace re-exports, external re-exports, or stub reasons."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Root directory of the recovered source tree"),
		),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Import specifier to resolve symbols for, exactly as consumers write it"),
		),
		mcp.WithString("symbols",
			mcp.Description("Comma-separated symbol names to resolve (default: every symbol imported from the specifier)"),
		),
	)
}

func cascadeResolveTool() mcp.Tool {
	return mcp.NewTool("cascade_resolve",
		mcp.WithDescription("Iteratively materialize bundle files referenced by static imports, dynamic import(), require(), re-exports, and CSS @import, via local copy or network fetch, until a fixpoint."),
		mcp.WithString("bundles_dir",
			mcp.Required(),
			mcp.Description("Directory holding the materialized bundle files"),
		),
		mcp.WithString("static_dir",
			mcp.Description("Local directory searched before the network"),
		),
		mcp.WithString("base_url",
			mcp.Description("Origin base URL for fetches"),
		),
		mcp.WithNumber("max_iterations",
			mcp.Description("Iteration cap for the scan and materialize loop (default 10)"),
		),
	)
}

func missingReportTool() mcp.Tool {
	return mcp.NewTool("missing_report",
		mcp.WithDescription("Dry-run index reconstruction and report every symbol that could not be placed, with reasons, per directory."),
		mcp.WithString("root",
			mcp.Required(),
			mcp.Description("Root directory of the recovered source tree"),
		),
	)
}
