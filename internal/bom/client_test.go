// internal/bom/client_test.go
package bom

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

func TestClientEstimateSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/estimate", r.URL.Path)

		var req estimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cupcakes", req.JobType)
		assert.Equal(t, 24, req.Quantity)

		json.NewEncoder(w).Encode(models.BOMEstimate{
			JobType:  req.JobType,
			Quantity: req.Quantity,
			Materials: []models.Material{
				{Name: "flour", Qty: 1.92, Unit: "kg"},
				{Name: "eggs", Qty: 12, Unit: "each"},
			},
			LaborHours: 1.2,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	estimate, err := client.Estimate(context.Background(), "cupcakes", 24)
	require.NoError(t, err)
	assert.Equal(t, "cupcakes", estimate.JobType)
	assert.Equal(t, 24, estimate.Quantity)
	assert.Len(t, estimate.Materials, 2)
	assert.InDelta(t, 1.2, estimate.LaborHours, 1e-9)
}

func TestClientEstimateUnknownJobType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{Detail: "unsupported job type"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Estimate(context.Background(), "wedding_dress", 1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnknownJobType))

	stdErr := errors.AsStandard(err)
	require.NotNil(t, stdErr)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, "unsupported job type", stdErr.Metadata["service_detail"])
}

func TestClientEstimateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Estimate(context.Background(), "cupcakes", 12)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBOMConnectionFailed))
}

func TestClientEstimateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(server.URL, time.Second)
	_, err := client.Estimate(context.Background(), "cupcakes", 12)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeBOMConnectionFailed))
}

func TestClientJobTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/job-types", r.URL.Path)
		json.NewEncoder(w).Encode([]string{"cake", "cupcakes", "pastry_box"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	types, err := client.JobTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cake", "cupcakes", "pastry_box"}, types)
	assert.True(t, client.IsHealthy(context.Background()))
}
