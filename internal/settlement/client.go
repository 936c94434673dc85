package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Client submits sealed envelopes to the settlement network.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     string
}

// NewClient creates a settlement network client. The HTTP client is injected
// so the caller controls timeouts and transport policy.
func NewClient(httpClient *http.Client, baseURL, secret string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("settlement network URL is required")
	}
	if secret == "" {
		return nil, fmt.Errorf("settlement shared secret is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, secret: secret}, nil
}

// Submit seals arguments and POSTs the envelope to the network. The response
// body is returned raw for the caller to interpret; a non-2xx status is an
// error.
func (c *Client) Submit(ctx context.Context, arguments any) (json.RawMessage, error) {
	env, err := Seal(arguments, c.secret)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal settlement envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build settlement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit settlement envelope: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read settlement response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().Int("status", resp.StatusCode).Msg("settlement network rejected envelope")
		return nil, fmt.Errorf("settlement network returned status %d", resp.StatusCode)
	}

	return respBody, nil
}
