// internal/bom/client.go
package bom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/http"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

// Estimator is the external BOM estimation collaborator. Implementations
// return quantities already scaled by the requested quantity.
type Estimator interface {
	Estimate(ctx context.Context, jobType string, quantity int) (*models.BOMEstimate, error)
	JobTypes(ctx context.Context) ([]string, error)
}

// Client talks to the bakery pricing service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type estimateRequest struct {
	JobType  string `json:"job_type"`
	Quantity int    `json:"quantity"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// NewClient creates a BOM API client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.NewClient(timeout),
	}
}

// Estimate requests a BOM for the job. A 400 means the service rejected the
// job type (semantic failure, not retryable); transport errors and 5xx are
// connection failures eligible for retry and fallback.
func (c *Client) Estimate(ctx context.Context, jobType string, quantity int) (*models.BOMEstimate, error) {
	body, err := json.Marshal(estimateRequest{JobType: jobType, Quantity: quantity})
	if err != nil {
		return nil, errors.NewBOMConnectionError(err)
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, c.baseURL+"/estimate", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewBOMConnectionError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, errors.NewBOMConnectionError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == nethttp.StatusBadRequest {
		stdErr := errors.NewUnknownJobTypeError(jobType, KnownJobTypes())
		if detail := readErrorDetail(resp.Body); detail != "" {
			stdErr.Metadata = map[string]interface{}{"service_detail": detail}
		}
		return nil, stdErr
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, errors.NewBOMConnectionError(
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.baseURL))
	}

	var estimate models.BOMEstimate
	if err := json.NewDecoder(resp.Body).Decode(&estimate); err != nil {
		return nil, errors.NewBOMConnectionError(fmt.Errorf("malformed estimate response: %w", err))
	}
	return &estimate, nil
}

// JobTypes returns the job types the service supports.
func (c *Client) JobTypes(ctx context.Context) ([]string, error) {
	req, err := nethttp.NewRequest(nethttp.MethodGet, c.baseURL+"/job-types", nil)
	if err != nil {
		return nil, errors.NewBOMConnectionError(err)
	}

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, errors.NewBOMConnectionError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, errors.NewBOMConnectionError(
			fmt.Errorf("unexpected status %d from %s", resp.StatusCode, c.baseURL))
	}

	var types []string
	if err := json.NewDecoder(resp.Body).Decode(&types); err != nil {
		return nil, errors.NewBOMConnectionError(fmt.Errorf("malformed job-types response: %w", err))
	}
	return types, nil
}

// IsHealthy reports whether the service answers the job-types probe.
func (c *Client) IsHealthy(ctx context.Context) bool {
	types, err := c.JobTypes(ctx)
	return err == nil && len(types) > 0
}

func readErrorDetail(r io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(r).Decode(&er); err != nil {
		return ""
	}
	return er.Detail
}
