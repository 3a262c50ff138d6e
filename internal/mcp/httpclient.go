package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/models"
)

// HTTPClient implements Backend by calling the HealthBridge REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Backend.
var _ Backend = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// do sends a request and decodes a 200 response into out. Error responses
// are turned back into *models.Error using the code the server reported.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Code != "" {
			return models.NewError(models.ErrorCode(e.Code), e.Error, nil)
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ReadSamples(ctx context.Context, req health.ReadRequest) (health.ReadResult, error) {
	var res health.ReadResult
	err := c.do(ctx, http.MethodPost, "/api/v1/samples/query", req, &res)
	return res, err
}

func (c *HTTPClient) CheckAuthorization(ctx context.Context, req health.AuthorizationRequest) (models.AuthorizationOutcome, error) {
	var out models.AuthorizationOutcome
	err := c.do(ctx, http.MethodPost, "/api/v1/authorization/check", req, &out)
	return out, err
}

// IsAvailable reports an unreachable server as an unavailable store.
func (c *HTTPClient) IsAvailable(ctx context.Context) models.Availability {
	var out models.Availability
	if err := c.do(ctx, http.MethodGet, "/api/v1/availability", nil, &out); err != nil {
		return models.Availability{Platform: "remote", Reason: err.Error()}
	}
	return out
}
