// internal/agent/dispatcher_test.go
package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liduanken/bakery-quotation-agent/internal/bom"
	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
	"github.com/liduanken/bakery-quotation-agent/internal/pipeline"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
	"github.com/liduanken/bakery-quotation-agent/internal/render"
	"github.com/liduanken/bakery-quotation-agent/internal/session"
)

type stubEstimator struct{}

func (stubEstimator) Estimate(ctx context.Context, jobType string, quantity int) (*models.BOMEstimate, error) {
	return &models.BOMEstimate{
		JobType:  jobType,
		Quantity: quantity,
		Materials: []models.Material{
			{Name: "flour", Qty: 1.92, Unit: "kg"},
			{Name: "sugar", Qty: 1.44, Unit: "kg"},
			{Name: "butter", Qty: 0.96, Unit: "kg"},
			{Name: "eggs", Qty: 12, Unit: "each"},
		},
		LaborHours: 1.2,
	}, nil
}

func (stubEstimator) JobTypes(ctx context.Context) ([]string, error) {
	return []string{"cupcakes"}, nil
}

type stubCosts struct{}

func (stubCosts) LookupBulk(ctx context.Context, names []string) (map[string]models.MaterialCost, error) {
	all := map[string]models.MaterialCost{
		"flour":  {Name: "flour", Unit: "kg", UnitCost: 0.90, Currency: "GBP"},
		"sugar":  {Name: "sugar", Unit: "kg", UnitCost: 0.70, Currency: "GBP"},
		"butter": {Name: "butter", Unit: "kg", UnitCost: 4.50, Currency: "GBP"},
		"eggs":   {Name: "eggs", Unit: "each", UnitCost: 0.18, Currency: "GBP"},
	}
	out := map[string]models.MaterialCost{}
	for _, n := range names {
		if c, ok := all[n]; ok {
			out[n] = c
		}
	}
	return out, nil
}

func (stubCosts) Get(ctx context.Context, name string) (*models.MaterialCost, error) {
	return nil, nil
}
func (stubCosts) List(ctx context.Context) ([]models.MaterialCost, error) { return nil, nil }
func (stubCosts) Search(ctx context.Context, p string) ([]models.MaterialCost, error) {
	return nil, nil
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	log := logger.NewTestLogger(t)

	resolver := bom.NewResolver(stubEstimator{}, log, 0, time.Millisecond)
	calc, err := pricing.NewCalculator(15.0, 0.30, 0.20)
	require.NoError(t, err)
	renderer, err := render.NewMarkdownRenderer("", t.TempDir(), log)
	require.NoError(t, err)

	p := pipeline.New(resolver, stubCosts{}, calc, renderer,
		pipeline.Options{CompanyName: "The Artisan Bakery", Currency: "GBP", ValidDays: 30}, log)
	return NewDispatcher(p, session.NewMemoryStore(30*time.Minute, log), log)
}

func provide(t *testing.T, d *Dispatcher, sessionID, field, value string) *Response {
	t.Helper()
	resp, err := d.Handle(context.Background(), sessionID, CmdProvideField,
		map[string]interface{}{"field": field, "value": value})
	require.NoError(t, err)
	return resp
}

func TestFullConversation(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	resp := provide(t, d, "", "job_type", "cupcakes")
	sid := resp.SessionID
	require.NotEmpty(t, sid)
	assert.Contains(t, resp.Message, "Still needed")

	provide(t, d, sid, "quantity", "24")
	provide(t, d, sid, "customer_name", "Alex Doe")
	resp = provide(t, d, sid, "due_date", "2026-09-05")
	assert.Contains(t, resp.Message, "All details gathered")

	resp, err := d.Handle(ctx, sid, CmdRequestBOM, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageBOMResolved, resp.Stage)
	assert.Contains(t, resp.Message, "flour: 1.92 kg")
	assert.Contains(t, resp.Message, "Labor: 1.2 hours")

	resp, err = d.Handle(ctx, sid, CmdRequestCosts, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageCostsResolved, resp.Stage)
	assert.Contains(t, resp.Message, "Ready to price")

	resp, err = d.Handle(ctx, sid, CmdConfirmAndRender, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageRendered, resp.Stage)
	assert.Contains(t, resp.Message, "total 42.47 GBP")
	assert.Contains(t, resp.Message, "Document written to")
}

func TestUnknownCommand(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Handle(context.Background(), "", "make_coffee", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidCommand))
}

func TestUnknownSession(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Handle(context.Background(), "ghost-session", CmdRequestBOM, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidCommand))
}

func TestProvideFieldValidation(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Handle(ctx, "", CmdProvideField, map[string]interface{}{"field": "job_type"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidCommand))

	_, err = d.Handle(ctx, "", CmdProvideField,
		map[string]interface{}{"field": "favourite_color", "value": "blue"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidCommand))

	_, err = d.Handle(ctx, "", CmdProvideField,
		map[string]interface{}{"field": "quantity", "value": "a dozen"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidQuantity))
}

func TestOutOfOrderCommand(t *testing.T) {
	d := newTestDispatcher(t)

	resp := provide(t, d, "", "job_type", "cupcakes")
	_, err := d.Handle(context.Background(), resp.SessionID, CmdRequestCosts, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodePrecondition))
}

func TestResetQuote(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	resp := provide(t, d, "", "job_type", "cupcakes")
	sid := resp.SessionID
	provide(t, d, sid, "quantity", "24")

	_, err := d.Handle(ctx, sid, CmdRequestBOM, nil)
	require.NoError(t, err)

	resp, err = d.Handle(ctx, sid, CmdResetQuote, nil)
	require.NoError(t, err)
	assert.Equal(t, pipeline.StageGathering, resp.Stage)

	resp = provide(t, d, sid, "job_type", "cake")
	assert.Contains(t, resp.Message, "quantity", "reset clears previously gathered fields")
}
