package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchFilesTool defines the search_files MCP tool.
var searchFilesTool = mcp.NewTool("search_files",
	mcp.WithDescription("Search indexed files semantically by content. Returns ranked files with snippets and confidence bands. Optionally restrict to files carrying given tags."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of files to return (default 10)"),
	),
	mcp.WithString("tags",
		mcp.Description("Comma-separated tag names a file must carry"),
	),
	mcp.WithBoolean("any_tag",
		mcp.Description("Match files carrying any of the tags instead of all of them"),
	),
)

// searchByTagsTool defines the search_by_tags MCP tool.
var searchByTagsTool = mcp.NewTool("search_by_tags",
	mcp.WithDescription("Find files by exact tag logic, without semantic ranking."),
	mcp.WithString("tags",
		mcp.Required(),
		mcp.Description("Comma-separated tag names"),
	),
	mcp.WithBoolean("any_tag",
		mcp.Description("Match files carrying any of the tags instead of all of them"),
	),
)

// suggestTagsTool defines the suggest_tags MCP tool.
var suggestTagsTool = mcp.NewTool("suggest_tags",
	mcp.WithDescription("Ask the configured AI provider to suggest tags for a file, split into existing vocabulary matches and proposed new tags."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Absolute path to the file"),
	),
	mcp.WithBoolean("refresh",
		mcp.Description("Bypass the suggestion cache and re-analyze"),
	),
)

// indexFileTool defines the index_file MCP tool.
var indexFileTool = mcp.NewTool("index_file",
	mcp.WithDescription("Index or refresh a file in the semantic search index."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Absolute path to the file"),
	),
	mcp.WithBoolean("force",
		mcp.Description("Re-embed even when content is unchanged"),
	),
)

// listTagsTool defines the list_tags MCP tool.
var listTagsTool = mcp.NewTool("list_tags",
	mcp.WithDescription("List the current tag vocabulary."),
)
