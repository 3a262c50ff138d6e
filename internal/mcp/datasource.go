package mcp

import (
	"context"

	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/models"
)

// Backend abstracts the health service for MCP tools. Both *health.Service
// (local store) and HTTPClient (remote via REST API) satisfy this interface.
type Backend interface {
	ReadSamples(ctx context.Context, req health.ReadRequest) (health.ReadResult, error)
	CheckAuthorization(ctx context.Context, req health.AuthorizationRequest) (models.AuthorizationOutcome, error)
	IsAvailable(ctx context.Context) models.Availability
}

// Compile-time check: *health.Service satisfies Backend.
var _ Backend = (*health.Service)(nil)
