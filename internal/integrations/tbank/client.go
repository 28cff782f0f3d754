// Package tbank adapts typed banking operations onto the legacy gateway's
// query-encoded JSON interface.
package tbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPStatusError captures non-2xx gateway responses. The gateway signals
// business failure inside 2xx bodies, so this only ever means transport or
// infrastructure trouble.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("tbank: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is the gateway adapter. All operations go to a single configured
// endpoint as POSTs carrying Header/Content/ConsumerID query parameters.
type Client struct {
	baseURL    string
	consumerID string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a gateway client. consumerID identifies this consumer
// to the gateway and rides along on every call.
func NewClient(baseURL, consumerID string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tbank: base URL must not be empty")
	}
	if strings.TrimSpace(consumerID) == "" {
		return nil, errors.New("tbank: consumer id must not be empty")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		consumerID: consumerID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// invoke encodes one operation and returns the raw ServiceResponse payload.
// header is always sent; content may be nil for operations without one.
func (c *Client) invoke(ctx context.Context, header requestHeader, content any) (json.RawMessage, error) {
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("tbank: marshal header: %w", err)
	}

	q := url.Values{}
	q.Set("Header", string(headerJSON))
	if content != nil {
		contentJSON, err := json.Marshal(content)
		if err != nil {
			return nil, fmt.Errorf("tbank: marshal content: %w", err)
		}
		q.Set("Content", string(contentJSON))
	}
	q.Set("ConsumerID", c.consumerID)

	reqURL := c.baseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("tbank: create request: %w", err)
	}

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("tbank: %s: %w", header.ServiceName, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        c.baseURL,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tbank: read response body: %w", err)
	}

	return unwrapEnvelope(header.ServiceName, buf)
}
