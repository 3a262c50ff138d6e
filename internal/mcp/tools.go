package mcp

import (
	"context"
	"fmt"

	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func dataTypeNames() []string {
	names := make([]string, len(models.AllDataTypes))
	for i, dt := range models.AllDataTypes {
		names[i] = string(dt)
	}
	return names
}

// --- Tool definitions ---

var toolReadSamples = mcp.NewTool("read_samples",
	mcp.WithDescription("Read health samples of one data type. Simple types return one row per sample in the canonical unit. sleep returns one row per wake day with stage hours and efficiency. activity, heart, body and mobility return one row per local calendar day. workout returns one row per workout with heart-rate zones."),
	mcp.WithString("dataType", mcp.Required(), mcp.Description("Data type to read"), mcp.Enum(dataTypeNames()...)),
	mcp.WithString("startDate", mcp.Description("ISO 8601 start, e.g. 2024-01-01T00:00:00Z. Defaults to 24 hours ago.")),
	mcp.WithString("endDate", mcp.Description("ISO 8601 end. Defaults to now.")),
	mcp.WithNumber("limit", mcp.Description("Maximum rows. Simple types default to 100.")),
	mcp.WithBoolean("ascending", mcp.Description("Oldest first. Simple types and workouts default to newest first, day rows to oldest first.")),
)

var toolCheckAuthorization = mcp.NewTool("check_authorization",
	mcp.WithDescription("Report which data types are authorized for reading and writing, without prompting."),
	mcp.WithArray("read", mcp.Description("Data types to check for read access"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithArray("write", mcp.Description("Data types to check for write access"), mcp.Items(map[string]any{"type": "string"})),
)

var toolHealthAvailability = mcp.NewTool("health_availability",
	mcp.WithDescription("Report whether health data can be read on this platform."),
)

// --- Tool handlers ---

func (h *handlers) readSamples(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataType, err := req.RequireString("dataType")
	if err != nil {
		return mcp.NewToolResultError("dataType parameter is required"), nil
	}

	rr := health.ReadRequest{
		DataType:  dataType,
		StartDate: req.GetString("startDate", ""),
		EndDate:   req.GetString("endDate", ""),
	}
	args := req.GetArguments()
	if v, ok := args["limit"]; ok {
		n, ok := v.(float64)
		if !ok || n < 0 || n != float64(int(n)) {
			return mcp.NewToolResultError("limit must be a non-negative integer"), nil
		}
		limit := int(n)
		rr.Limit = &limit
	}
	if v, ok := args["ascending"]; ok {
		b, ok := v.(bool)
		if !ok {
			return mcp.NewToolResultError("ascending must be a boolean"), nil
		}
		rr.Ascending = &b
	}

	res, err := h.backend.ReadSamples(ctx, rr)
	if err != nil {
		h.log.Error("mcp read_samples", "data_type", dataType, "error", err)
		return toolError(err), nil
	}
	if res.Samples == nil {
		res.Samples = []health.Row{}
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) checkAuthorization(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	read, err := stringList(args, "read")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	write, err := stringList(args, "write")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := h.backend.CheckAuthorization(ctx, health.AuthorizationRequest{Read: read, Write: write})
	if err != nil {
		h.log.Error("mcp check_authorization", "error", err)
		return toolError(err), nil
	}

	result, err := mcp.NewToolResultJSON(outcome)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) healthAvailability(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.backend.IsAvailable(ctx))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// toolError reports err with its taxonomy code so callers can branch on it.
func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", models.CodeOf(err), err))
}

func stringList(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of data types", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of data types", key)
		}
		out = append(out, s)
	}
	return out, nil
}
