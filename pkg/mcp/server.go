package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/homai-zwave/pkg/cache"
	"github.com/urmzd/homai-zwave/pkg/device"
	"github.com/urmzd/homai-zwave/pkg/device/schema"
	"github.com/urmzd/homai-zwave/pkg/value"
)

// Server wraps the MCP server with Homai's list value tools
type Server struct {
	mcpServer  *server.MCPServer
	registry   *value.Registry
	controller device.Controller
	validator  *schema.Validator
	store      *cache.Store
}

// NewServer creates a new MCP server over the given registry. store may be
// nil, in which case save_cache reports an error.
func NewServer(registry *value.Registry, controller device.Controller, validator *schema.Validator, store *cache.Store) *Server {
	s := &Server{
		registry:   registry,
		controller: controller,
		validator:  validator,
		store:      store,
	}

	s.mcpServer = server.NewMCPServer(
		"homai-zwave",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
