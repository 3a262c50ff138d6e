package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

const recentWorkoutDays = 14

type dataTypeInfo struct {
	DataType  models.DataType     `json:"dataType"`
	Unit      string              `json:"unit"`
	Kinds     []models.NativeKind `json:"kinds"`
	Composite bool                `json:"composite"`
	Writable  bool                `json:"writable"`
}

func (h *handlers) dataTypeCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog := make([]dataTypeInfo, 0, len(models.AllDataTypes))
	for _, dt := range models.AllDataTypes {
		catalog = append(catalog, dataTypeInfo{
			DataType:  dt,
			Unit:      dt.Unit(),
			Kinds:     dt.Kinds(),
			Composite: dt.IsComposite(),
			Writable:  dt.Writable(),
		})
	}
	return jsonResource(req.Params.URI, catalog)
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -recentWorkoutDays)

	res, err := h.backend.ReadSamples(ctx, health.ReadRequest{
		DataType:  string(models.DataTypeWorkout),
		StartDate: start.Format(time.RFC3339),
		EndDate:   end.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, res.Samples)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
