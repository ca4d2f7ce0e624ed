package mcp

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/roost/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var addToolDef = mcp.NewTool("archive_add",
	mcp.WithDescription("Archive a post by its permalink. Downloads the author avatar and attached images into the local cache."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Post URL, e.g. https://twitter.com/<handle>/status/<id>")),
)

var removeToolDef = mcp.NewTool("archive_remove",
	mcp.WithDescription("Remove an archived post. Cached images are kept. Removing an unknown post is not an error."),
	mcp.WithString("url", mcp.Required(), mcp.Description("Post URL of the archived post")),
)

var listToolDef = mcp.NewTool("archive_list",
	mcp.WithDescription("List archived posts in the order they were added."),
	mcp.WithString("handle", mcp.Description("Only posts by this author handle")),
)

var outputToolDef = mcp.NewTool("archive_output",
	mcp.WithDescription("Render every archived post into a new dated snapshot directory."),
	mcp.WithString("root", mcp.Description("Directory the snapshot is created in (default: configured output_root)")),
	mcp.WithString("title", mcp.Description("Page title (default: configured site_title)")),
)

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"archive_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"archive_remove": {
		def:     removeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRemove },
	},
	"archive_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"archive_output": {
		def:     outputToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOutput },
	},
}

// AllToolNames returns the registered tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewServer creates an MCP server with the archive tools registered.
func NewServer(deps ops.Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"roost",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)
	for _, name := range AllToolNames() {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the archive tools over stdio until stdin closes.
func Run(deps ops.Deps, version string) error {
	return server.ServeStdio(NewServer(deps, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
