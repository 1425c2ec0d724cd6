// internal/common/http/client.go

// Package http wraps net/http with the per-request timeout and context
// plumbing shared by outbound service clients, currently the BOM estimator
// transport in internal/bom.
package http

import (
	"context"
	"net/http"
	"time"
)

// Client is an HTTP client with a fixed per-request timeout.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a client whose every request is bounded by timeout.
// The BOM resolver layers retries on top, so the timeout here caps a single
// attempt, not the whole resolution.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext sends the request under ctx, so a cancelled resolution
// abandons the in-flight estimate immediately.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
