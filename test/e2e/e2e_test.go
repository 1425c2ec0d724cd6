// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liduanken/bakery-quotation-agent/internal/agent"
	"github.com/liduanken/bakery-quotation-agent/internal/bom"
	"github.com/liduanken/bakery-quotation-agent/internal/common/database"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/costs"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
	"github.com/liduanken/bakery-quotation-agent/internal/pipeline"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
	"github.com/liduanken/bakery-quotation-agent/internal/render"
	"github.com/liduanken/bakery-quotation-agent/internal/session"
)

// bomServer serves the reference cupcake estimate, pre-scaled by quantity.
func bomServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/estimate":
			var req struct {
				JobType  string `json:"job_type"`
				Quantity int    `json:"quantity"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.JobType != "cupcakes" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"detail": "unsupported job type"})
				return
			}
			scale := float64(req.Quantity) / 24.0
			json.NewEncoder(w).Encode(models.BOMEstimate{
				JobType:  req.JobType,
				Quantity: req.Quantity,
				Materials: []models.Material{
					{Name: "flour", Qty: 1.92 * scale, Unit: "kg"},
					{Name: "sugar", Qty: 1.44 * scale, Unit: "kg"},
					{Name: "butter", Qty: 0.96 * scale, Unit: "kg"},
					{Name: "eggs", Qty: 12 * scale, Unit: "each"},
				},
				LaborHours: 1.2 * scale,
			})
		case "/job-types":
			json.NewEncoder(w).Encode([]string{"cupcakes"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func costDB(t *testing.T) (*database.PostgresClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &database.PostgresClient{DB: db}, mock
}

func expectCostLookup(mock sqlmock.Sqlmock) {
	rows := sqlmock.NewRows([]string{"name", "unit", "unit_cost", "currency", "last_updated"}).
		AddRow("flour", "kg", 0.90, "GBP", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)).
		AddRow("sugar", "kg", 0.70, "GBP", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)).
		AddRow("butter", "kg", 4.50, "GBP", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)).
		AddRow("eggs", "each", 0.18, "GBP", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery(`SELECT .+ FROM material_costs WHERE LOWER\(name\) = ANY`).
		WithArgs(pq.Array([]string{"flour", "sugar", "butter", "eggs"})).
		WillReturnRows(rows)
}

func buildDispatcher(t *testing.T, bomURL string, pg *database.PostgresClient) (*agent.Dispatcher, string) {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	rdb := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { rdb.Close() })

	source := costs.NewCachedSource(costs.NewPostgresStore(pg, log), rdb, time.Minute, log)
	resolver := bom.NewResolver(bom.NewClient(bomURL, 5*time.Second), log, 3, 10*time.Millisecond)

	calc, err := pricing.NewCalculator(15.0, 0.30, 0.20)
	require.NoError(t, err)

	outDir := t.TempDir()
	renderer, err := render.NewMarkdownRenderer("", outDir, log)
	require.NoError(t, err)

	p := pipeline.New(resolver, source, calc, renderer,
		pipeline.Options{CompanyName: "The Artisan Bakery", Currency: "GBP", ValidDays: 30}, log)
	return agent.NewDispatcher(p, session.NewMemoryStore(time.Hour, log), log), outDir
}

func TestQuotationEndToEnd(t *testing.T) {
	server := bomServer(t)
	defer server.Close()

	pg, mock := costDB(t)
	expectCostLookup(mock)

	dispatcher, _ := buildDispatcher(t, server.URL, pg)
	ctx := context.Background()

	resp, err := dispatcher.Handle(ctx, "", agent.CmdProvideField,
		map[string]interface{}{"field": "job_type", "value": "Cupcakes"})
	require.NoError(t, err)
	sid := resp.SessionID

	for field, value := range map[string]string{
		"quantity":      "24",
		"customer_name": "Alex Doe",
		"due_date":      "2026-09-05",
	} {
		_, err = dispatcher.Handle(ctx, sid, agent.CmdProvideField,
			map[string]interface{}{"field": field, "value": value})
		require.NoError(t, err)
	}

	resp, err = dispatcher.Handle(ctx, sid, agent.CmdRequestBOM, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageBOMResolved, resp.Stage)
	assert.Contains(t, resp.Message, "flour: 1.92 kg")

	resp, err = dispatcher.Handle(ctx, sid, agent.CmdRequestCosts, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageCostsResolved, resp.Stage)

	resp, err = dispatcher.Handle(ctx, sid, agent.CmdConfirmAndRender, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageRendered, resp.Stage)
	assert.Contains(t, resp.Message, "total 42.47 GBP")

	path, ok := resp.Data["path"].(string)
	require.True(t, ok)
	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "Alex Doe")
	assert.Contains(t, string(doc), "**42.47**")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotationFallsBackWhenBOMServiceDown(t *testing.T) {
	server := bomServer(t)
	server.Close() // refuse all connections

	pg, mock := costDB(t)
	rows := sqlmock.NewRows([]string{"name", "unit", "unit_cost", "currency", "last_updated"}).
		AddRow("flour", "kg", 0.90, "GBP", time.Now()).
		AddRow("sugar", "kg", 0.70, "GBP", time.Now()).
		AddRow("eggs", "each", 0.18, "GBP", time.Now()).
		AddRow("butter", "kg", 4.50, "GBP", time.Now()).
		AddRow("milk", "L", 0.60, "GBP", time.Now())
	mock.ExpectQuery(`SELECT .+ FROM material_costs WHERE LOWER\(name\) = ANY`).
		WillReturnRows(rows)

	dispatcher, _ := buildDispatcher(t, server.URL, pg)
	ctx := context.Background()

	resp, err := dispatcher.Handle(ctx, "", agent.CmdProvideField,
		map[string]interface{}{"field": "job_type", "value": "cupcakes"})
	require.NoError(t, err)
	sid := resp.SessionID
	for field, value := range map[string]string{
		"quantity":      "2",
		"customer_name": "Alex Doe",
		"due_date":      "2026-09-05",
	} {
		_, err = dispatcher.Handle(ctx, sid, agent.CmdProvideField,
			map[string]interface{}{"field": field, "value": value})
		require.NoError(t, err)
	}

	resp, err = dispatcher.Handle(ctx, sid, agent.CmdRequestBOM, nil)
	require.NoError(t, err, "fallback recipes serve the estimate when the service is down")
	assert.Equal(t, pipeline.StageBOMResolved, resp.Stage)

	resp, err = dispatcher.Handle(ctx, sid, agent.CmdRequestCosts, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageCostsResolved, resp.Stage)

	resp, err = dispatcher.Handle(ctx, sid, agent.CmdConfirmAndRender, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageRendered, resp.Stage)
}
