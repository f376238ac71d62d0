package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdvisoryPath is the route served by the advisory proxy.
const AdvisoryPath = "/v1/advisory"

// ErrorCodeNotConfigured is the proxy's error code for a missing credential.
const ErrorCodeNotConfigured = "not_configured"

const maxResponseBytes = 64 << 10

// ErrorBody is the JSON body returned by the proxy on failure.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HTTPClient calls a remote advisory proxy.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates an HTTPClient for the proxy at endpoint
// (e.g. "http://localhost:8787").
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// Analyze posts req to the proxy and parses the reply.
func (c *HTTPClient) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding advisory request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+AdvisoryPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating advisory request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling advisory service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading advisory response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var eb ErrorBody
		if json.Unmarshal(data, &eb) == nil && eb.Code == ErrorCodeNotConfigured {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("advisory service returned HTTP %d", resp.StatusCode)
	}

	return Parse(data)
}
