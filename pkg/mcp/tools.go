package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the health status of the service and the Z-Wave controller connection"),
		),
		s.handleGetHealth,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_nodes",
			mcp.WithDescription("List every Z-Wave node that has list values"),
		),
		s.handleListNodes,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("list_values",
			mcp.WithDescription("List the list values of a node with their items and current selection"),
			mcp.WithNumber("node",
				mcp.Required(),
				mcp.Description("Node ID (1-232)"),
			),
		),
		s.handleListValues,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get_value",
			mcp.WithDescription("Get a list value's items, confirmed selection, and pending selection"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Value ID in node-class-instance-index form, e.g. 5-68-1-0"),
			),
		),
		s.handleGetValue,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("select_item",
			mcp.WithDescription("Ask a device to change a list value to the item with the given label or code. Exactly one of label or code must be given. The selection is confirmed once the device reports it."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Value ID in node-class-instance-index form"),
			),
			mcp.WithString("label",
				mcp.Description("Item label, e.g. \"Auto Low\""),
			),
			mcp.WithNumber("code",
				mcp.Description("Item code as sent on the wire"),
			),
		),
		s.handleSelectItem,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("refresh_value",
			mcp.WithDescription("Ask the device to report the current state of a list value"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Value ID in node-class-instance-index form"),
			),
		),
		s.handleRefreshValue,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("save_cache",
			mcp.WithDescription("Persist the current values of every node so they survive a restart"),
		),
		s.handleSaveCache,
	)
}
