// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/liduanken/bakery-quotation-agent/internal/bom"
	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/common/metrics"
	"github.com/liduanken/bakery-quotation-agent/internal/costs"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
	"github.com/liduanken/bakery-quotation-agent/internal/quote"
	"github.com/liduanken/bakery-quotation-agent/internal/render"
	"github.com/liduanken/bakery-quotation-agent/internal/units"
)

// CostResult reports a cost resolution outcome. Missing materials are a
// normal answer, not an error: the conversation continues and pricing stays
// blocked until the set is complete.
type CostResult struct {
	Costs   map[string]models.MaterialCost `json:"costs"`
	Missing []string                       `json:"missing"`
}

// Complete reports whether every estimated material has a cost.
func (r *CostResult) Complete() bool {
	return len(r.Missing) == 0
}

// Options carries the quote-level settings the pipeline stamps onto records.
type Options struct {
	CompanyName string
	Currency    string
	ValidDays   int
}

// Pipeline drives one conversation state through BOM resolution, cost
// resolution, pricing and rendering, enforcing step order.
type Pipeline struct {
	resolver   *bom.Resolver
	costSource costs.Source
	calculator *pricing.Calculator
	renderer   render.Renderer
	opts       Options
	logger     logger.Logger
}

// New assembles a pipeline from its collaborators.
func New(resolver *bom.Resolver, costSource costs.Source, calculator *pricing.Calculator,
	renderer render.Renderer, opts Options, log logger.Logger) *Pipeline {
	return &Pipeline{
		resolver:   resolver,
		costSource: costSource,
		calculator: calculator,
		renderer:   renderer,
		opts:       opts,
		logger:     log,
	}
}

// ResolveBOM turns the gathered job type and quantity into a BOM estimate.
// Re-running it replaces the previous estimate and discards everything
// derived from it, so a customer can change their mind freely.
func (p *Pipeline) ResolveBOM(ctx context.Context, state *ConversationState) (*models.BOMEstimate, error) {
	done := stepTimer("resolve_bom")

	if state.JobType == "" || state.Quantity <= 0 {
		return nil, done(errors.NewPreconditionError("resolve_bom", "gather job_type and quantity"))
	}

	estimate, err := p.resolver.Resolve(ctx, state.JobType, state.Quantity)
	if err != nil {
		return nil, done(err)
	}

	state.clearDerived()
	state.Estimate = estimate
	state.Stage = StageBOMResolved

	p.logger.Info("BOM resolved", map[string]interface{}{
		"job_type":  estimate.JobType,
		"quantity":  estimate.Quantity,
		"materials": len(estimate.Materials),
	})
	done(nil)
	return estimate, nil
}

// ResolveCosts looks up unit costs for every estimated material and builds
// priced lines, converting quantities into each cost record's unit. Materials
// without a stored cost come back in Missing; the state does not advance
// until the set is complete.
func (p *Pipeline) ResolveCosts(ctx context.Context, state *ConversationState) (*CostResult, error) {
	done := stepTimer("resolve_costs")

	if state.Estimate == nil {
		return nil, done(errors.NewPreconditionError("resolve_costs", "resolve_bom"))
	}

	found, err := p.costSource.LookupBulk(ctx, state.Estimate.MaterialNames())
	if err != nil {
		return nil, done(err)
	}

	var lines []models.MaterialLine
	var missing []string
	for _, material := range state.Estimate.Materials {
		key := strings.ToLower(strings.TrimSpace(material.Name))
		cost, ok := found[key]
		if !ok {
			missing = append(missing, key)
			continue
		}

		qty := material.Qty
		if !strings.EqualFold(material.Unit, cost.Unit) {
			qty, err = units.ConvertString(material.Qty, material.Unit, cost.Unit)
			if err != nil {
				return nil, done(err)
			}
		}
		lines = append(lines, models.MaterialLine{
			Name:     key,
			Qty:      qty,
			Unit:     cost.Unit,
			UnitCost: cost.UnitCost,
			LineCost: qty * cost.UnitCost,
		})
	}
	sort.Strings(missing)

	state.Costs = found
	state.Lines = lines
	state.MissingMaterials = missing
	state.Calculation = nil
	state.Record = nil
	state.DocumentPath = ""

	result := &CostResult{Costs: found, Missing: missing}
	if result.Complete() {
		state.Stage = StageCostsResolved
	} else {
		state.Stage = StageBOMResolved
		p.logger.Warn("cost resolution incomplete", map[string]interface{}{
			"missing": missing,
		})
	}
	done(nil)
	return result, nil
}

// Price runs the pricing cascade over the resolved lines. It refuses to run
// while any material cost is still missing.
func (p *Pipeline) Price(ctx context.Context, state *ConversationState) (*pricing.QuoteCalculation, error) {
	done := stepTimer("price")

	if state.Estimate == nil {
		return nil, done(errors.NewPreconditionError("price", "resolve_bom"))
	}
	if state.Costs == nil {
		return nil, done(errors.NewPreconditionError("price", "resolve_costs"))
	}
	if len(state.MissingMaterials) > 0 {
		return nil, done(errors.NewPreconditionError("price",
			"resolve costs for: "+strings.Join(state.MissingMaterials, ", ")))
	}

	calc := p.calculator.CalculateQuote(state.Lines, state.Estimate.LaborHours)
	state.Calculation = &calc
	state.Stage = StagePriced

	p.logger.Info("quote priced", map[string]interface{}{
		"job_type": state.Estimate.JobType,
		"total":    calc.Total,
	})
	done(nil)
	return &calc, nil
}

// Render assembles the final quote record and writes the customer document.
// All required conversation fields must be gathered by now.
func (p *Pipeline) Render(ctx context.Context, state *ConversationState) (*quote.QuoteRecord, string, error) {
	done := stepTimer("render")

	if state.Calculation == nil {
		return nil, "", done(errors.NewPreconditionError("render", "price"))
	}
	if missing := state.MissingFields(); len(missing) > 0 {
		return nil, "", done(errors.NewIncompleteQuoteError(missing))
	}

	record, err := quote.Assemble(*state.Calculation, quote.Metadata{
		QuoteID:      quote.NewQuoteID(),
		QuoteDate:    quote.QuoteDate(time.Now()),
		ValidUntil:   quote.ValidUntil(time.Now(), p.opts.ValidDays),
		DueDate:      state.DueDate,
		CompanyName:  p.opts.CompanyName,
		CustomerName: state.CustomerName,
		JobType:      state.Estimate.JobType,
		Quantity:     state.Estimate.Quantity,
		Currency:     p.opts.Currency,
		Notes:        state.Notes,
	})
	if err != nil {
		return nil, "", done(err)
	}

	path, err := p.renderer.Render(quote.TemplateData(record))
	if err != nil {
		return nil, "", done(err)
	}

	state.Record = record
	state.DocumentPath = path
	state.Stage = StageRendered
	metrics.QuotesGenerated.Inc()

	p.logger.Info("quote rendered", map[string]interface{}{
		"quote_id": record.QuoteID,
		"path":     path,
		"total":    record.Calculation.Total,
	})
	done(nil)
	return record, path, nil
}

// Reset wipes the conversation back to gathering. Always succeeds.
func (p *Pipeline) Reset(state *ConversationState) {
	state.Reset()
	metrics.PipelineStepsCompleted.WithLabelValues("reset").Inc()
}

// stepTimer instruments one pipeline step. The returned func records the
// outcome and passes the error through for convenience.
func stepTimer(step string) func(error) error {
	start := time.Now()
	return func(err error) error {
		metrics.PipelineStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
		if err != nil {
			code := "unknown"
			if stdErr := errors.AsStandard(err); stdErr != nil {
				code = string(stdErr.Code)
			}
			metrics.PipelineStepsFailed.WithLabelValues(step, code).Inc()
			return err
		}
		metrics.PipelineStepsCompleted.WithLabelValues(step).Inc()
		return nil
	}
}
