// Package chartgen calls the chart-generation service: a balance time
// series goes in, PNG bytes come out. The rendering itself is opaque.
package chartgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tbank-bot/internal/domain"
)

// Client posts balance trends to the chart generator.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("chartgen: base URL must not be empty")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Render returns a PNG chart for the given trend.
func (c *Client) Render(ctx context.Context, trend domain.BalanceTrend) ([]byte, error) {
	body, err := json.Marshal(trend)
	if err != nil {
		return nil, fmt.Errorf("chartgen: marshal trend: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chartgen: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chartgen: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("chartgen: unexpected status %d: %s", res.StatusCode, string(buf))
	}

	png, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("chartgen: read response body: %w", err)
	}
	if len(png) == 0 {
		return nil, errors.New("chartgen: empty chart response")
	}
	return png, nil
}
