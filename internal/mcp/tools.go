package mcp

import "github.com/mark3labs/mcp-go/mcp"

var getToolDef = mcp.NewTool("facts_get",
	mcp.WithDescription("Return count distinct dog facts in random order. count must be between 1 and the number of stored facts."),
	mcp.WithNumber("count", mcp.Required(), mcp.Description("Number of facts to return (integer, at least 1).")),
)

var createToolDef = mcp.NewTool("facts_create",
	mcp.WithDescription("Add a new dog fact. Fails if a fact with the same text (ignoring case) already exists."),
	mcp.WithString("description", mcp.Required(), mcp.Description("The fact text.")),
	mcp.WithString("token", mcp.Required(), mcp.Description("Shared write token.")),
)

var exportToolDef = mcp.NewTool("facts_export",
	mcp.WithDescription("Export all facts to a JSONL file. Defaults to <base>/exports/facts-<timestamp>.jsonl."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path, directly inside the exports directory or an allowed path.")),
)

var importToolDef = mcp.NewTool("facts_import",
	mcp.WithDescription("Append facts from a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path.")),
	mcp.WithString("mode", mcp.Enum("error", "skip"), mcp.Description("Duplicate handling: error (default) aborts the import, skip ignores duplicates.")),
	mcp.WithString("token", mcp.Required(), mcp.Description("Shared write token.")),
)
