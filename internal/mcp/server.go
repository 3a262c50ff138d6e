package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(backend Backend, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("HealthBridge", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("HealthBridge health data server. Read steps, distance, calories, heart rate, weight, sleep, workouts and the composite activity, heart, body and mobility day summaries. Check which data types are authorized before reading."),
	)

	h := &handlers{backend: backend, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolReadSamples, Handler: h.readSamples},
		server.ServerTool{Tool: toolCheckAuthorization, Handler: h.checkAuthorization},
		server.ServerTool{Tool: toolHealthAvailability, Handler: h.healthAvailability},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDataTypes, Handler: h.dataTypeCatalog},
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	backend Backend
	log     *slog.Logger
}

// --- Resource definitions ---

var resDataTypes = mcp.NewResource(
	"healthbridge://data_types",
	"Data Types",
	mcp.WithResourceDescription("Every readable data type with its canonical unit, underlying record kinds and whether it can be written"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkouts = mcp.NewResource(
	"healthbridge://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts from the last 14 days with heart-rate statistics and zone minutes"),
	mcp.WithMIMEType("application/json"),
)
