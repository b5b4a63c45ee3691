package mcp

import "github.com/mark3labs/mcp-go/mcp"

// getSystemTool defines the get_system MCP tool.
var getSystemTool = mcp.NewTool("get_system",
	mcp.WithDescription("Get a PluralKit system profile by its five-letter ID, including its members sorted by name."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("System ID, e.g. abcde"),
	),
)

// listMembersTool defines the list_members MCP tool.
var listMembersTool = mcp.NewTool("list_members",
	mcp.WithDescription("List the members of a PluralKit system, sorted by name."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("System ID, e.g. abcde"),
	),
	mcp.WithString("format",
		mcp.Description("Output format (default text)"),
		mcp.Enum("text", "json"),
	),
)

// getOwnSystemTool defines the get_own_system MCP tool.
var getOwnSystemTool = mcp.NewTool("get_own_system",
	mcp.WithDescription("Get the system that owns the stored PluralKit token. Requires `pkweb auth token`."),
)
