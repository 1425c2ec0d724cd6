// internal/quote/assembler_test.go
package quote

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
)

func referenceCalculation(t *testing.T) pricing.QuoteCalculation {
	t.Helper()
	calc, err := pricing.NewCalculator(15.0, 0.30, 0.20)
	require.NoError(t, err)

	lines := []models.MaterialLine{
		{Name: "flour", Qty: 1.92, Unit: "kg", UnitCost: 0.90, LineCost: 1.92 * 0.90},
		{Name: "sugar", Qty: 1.44, Unit: "kg", UnitCost: 0.70, LineCost: 1.44 * 0.70},
		{Name: "butter", Qty: 0.96, Unit: "kg", UnitCost: 4.50, LineCost: 0.96 * 4.50},
		{Name: "eggs", Qty: 12, Unit: "each", UnitCost: 0.18, LineCost: 12 * 0.18},
	}
	return calc.CalculateQuote(lines, 1.2)
}

func referenceMetadata() Metadata {
	return Metadata{
		QuoteID:      "Q-20260829-TEST0001",
		QuoteDate:    "2026-08-29",
		ValidUntil:   "2026-09-28",
		DueDate:      "2026-09-05",
		CompanyName:  "The Artisan Bakery",
		CustomerName: "Alex Doe",
		JobType:      "cupcakes",
		Quantity:     24,
		Currency:     "GBP",
	}
}

func TestAssembleCompleteQuote(t *testing.T) {
	record, err := Assemble(referenceCalculation(t), referenceMetadata())
	require.NoError(t, err)

	assert.Equal(t, "Q-20260829-TEST0001", record.QuoteID)
	assert.Equal(t, "The Artisan Bakery", record.CompanyName)
	assert.Equal(t, 24, record.Quantity)
	assert.InDelta(t, 42.47, record.Calculation.Total, 1e-9)
	assert.InDelta(t, 1.77, record.UnitPrice, 1e-9)
}

func TestAssembleCollectsAllMissingFields(t *testing.T) {
	meta := referenceMetadata()
	meta.QuoteID = ""
	meta.CustomerName = ""
	meta.Currency = ""

	_, err := Assemble(referenceCalculation(t), meta)
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.ErrCodeIncompleteQuote))

	stdErr := errors.AsStandard(err)
	require.NotNil(t, stdErr)
	missing, ok := stdErr.Metadata["missing_fields"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"quote_id", "customer_name", "currency"}, missing)

	// The error text itself names every missing field.
	for _, name := range missing {
		assert.Contains(t, stdErr.Details, name)
	}
}

func TestAssembleZeroTotalIsIncomplete(t *testing.T) {
	_, err := Assemble(pricing.QuoteCalculation{}, referenceMetadata())
	require.Error(t, err)

	stdErr := errors.AsStandard(err)
	require.NotNil(t, stdErr)
	assert.Contains(t, stdErr.Metadata["missing_fields"], "total")
}

func TestAssembleDefaultsDates(t *testing.T) {
	meta := referenceMetadata()
	meta.QuoteDate = ""
	meta.ValidUntil = ""

	record, err := Assemble(referenceCalculation(t), meta)
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	assert.Equal(t, today, record.QuoteDate)
	assert.Equal(t, ValidUntil(time.Now(), DefaultValidDays), record.ValidUntil)
}

func TestTemplateData(t *testing.T) {
	record, err := Assemble(referenceCalculation(t), referenceMetadata())
	require.NoError(t, err)

	data := TemplateData(record)
	assert.Equal(t, "9.22", data["materials_subtotal"])
	assert.Equal(t, "18.00", data["labor_cost"])
	assert.Equal(t, "27.22", data["subtotal"])
	assert.Equal(t, "30%", data["markup_pct"])
	assert.Equal(t, "8.17", data["markup_value"])
	assert.Equal(t, "35.39", data["price_before_vat"])
	assert.Equal(t, "20%", data["vat_pct"])
	assert.Equal(t, "7.08", data["vat_value"])
	assert.Equal(t, "42.47", data["total"])
	assert.Equal(t, "1.77", data["unit_price"])
	assert.Equal(t, "24", data["quantity"])
	assert.Equal(t, "1.2", data["labor_hours"])
}

func TestNewQuoteID(t *testing.T) {
	id := NewQuoteID()
	assert.True(t, strings.HasPrefix(id, "Q-"), id)
	assert.Len(t, id, len("Q-20060102-")+8)
	assert.NotEqual(t, id, NewQuoteID())
}

func TestValidUntil(t *testing.T) {
	issued := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-09-28", ValidUntil(issued, 30))
	assert.Equal(t, "2026-09-28", ValidUntil(issued, 0), "non-positive validity falls back to the default")
}
