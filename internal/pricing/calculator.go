// Package pricing computes quote totals through a fixed cascade:
// materials subtotal, labor, markup, VAT. Every stage rounds its output to
// two decimal places before the next stage consumes it, so a quote recomputed
// from the same inputs is identical bit for bit.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/models"
)

// QuoteCalculation holds every intermediate and final figure of the cascade.
// All monetary fields are already rounded to 2 decimal places.
type QuoteCalculation struct {
	Lines             []models.MaterialLine `json:"lines"`
	MaterialsSubtotal float64               `json:"materials_subtotal"`

	LaborHours float64 `json:"labor_hours"`
	LaborRate  float64 `json:"labor_rate"`
	LaborCost  float64 `json:"labor_cost"`

	Subtotal float64 `json:"subtotal"`

	MarkupPct      float64 `json:"markup_pct"` // decimal fraction (0.30 for 30%)
	MarkupValue    float64 `json:"markup_value"`
	PriceBeforeVAT float64 `json:"price_before_vat"`

	VATPct   float64 `json:"vat_pct"` // decimal fraction (0.20 for 20%)
	VATValue float64 `json:"vat_value"`

	Total float64 `json:"total"`
}

// Calculator applies a configured labor rate, markup and VAT to material lines.
type Calculator struct {
	laborRate float64
	markupPct float64
	vatPct    float64
}

// NewCalculator validates the rates at construction time: laborRate and
// markupPct must be non-negative, vatPct must be within [0, 1].
func NewCalculator(laborRate, markupPct, vatPct float64) (*Calculator, error) {
	if laborRate < 0 {
		return nil, errors.NewInvalidRateError("labor_rate", laborRate)
	}
	if markupPct < 0 {
		return nil, errors.NewInvalidRateError("markup_pct", markupPct)
	}
	if vatPct < 0 || vatPct > 1 {
		return nil, errors.NewInvalidRateError("vat_pct", vatPct)
	}
	return &Calculator{
		laborRate: laborRate,
		markupPct: markupPct,
		vatPct:    vatPct,
	}, nil
}

func (c *Calculator) LaborRate() float64 { return c.laborRate }
func (c *Calculator) MarkupPct() float64 { return c.markupPct }
func (c *Calculator) VATPct() float64    { return c.vatPct }

// round2 rounds half away from zero to 2 decimal places via decimal
// arithmetic, avoiding the binary-float drift of naive multiply-and-round.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func mulRound2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

func addRound2(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Round2 rounds a money value half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return round2(v)
}

// LineCost computes a single material line cost, rounded to 2 decimals.
func LineCost(qty, unitCost float64) float64 {
	return mulRound2(qty, unitCost)
}

// CalculateQuote runs the full cascade over pre-costed material lines.
//
// Line costs arrive at full precision; the materials subtotal is the first
// rounding point. An empty line list is legal and yields a zero subtotal with
// labor, markup and VAT still applied.
func (c *Calculator) CalculateQuote(lines []models.MaterialLine, laborHours float64) QuoteCalculation {
	// 1. Materials subtotal
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(decimal.NewFromFloat(line.LineCost))
	}
	materialsSubtotal, _ := sum.Round(2).Float64()

	// 2. Labor cost
	laborCost := mulRound2(laborHours, c.laborRate)

	// 3. Subtotal before markup
	subtotal := addRound2(materialsSubtotal, laborCost)

	// 4. Markup
	markupValue := mulRound2(subtotal, c.markupPct)
	priceBeforeVAT := addRound2(subtotal, markupValue)

	// 5. VAT
	vatValue := mulRound2(priceBeforeVAT, c.vatPct)
	total := addRound2(priceBeforeVAT, vatValue)

	return QuoteCalculation{
		Lines:             lines,
		MaterialsSubtotal: materialsSubtotal,
		LaborHours:        laborHours,
		LaborRate:         c.laborRate,
		LaborCost:         laborCost,
		Subtotal:          subtotal,
		MarkupPct:         c.markupPct,
		MarkupValue:       markupValue,
		PriceBeforeVAT:    priceBeforeVAT,
		VATPct:            c.vatPct,
		VATValue:          vatValue,
		Total:             total,
	}
}

// UnitPrice divides the total by the ordered quantity, rounded to 2 decimals.
func (c *Calculator) UnitPrice(total float64, quantity int) (float64, error) {
	if quantity <= 0 {
		return 0, errors.NewInvalidQuantityError(quantity)
	}
	f, _ := decimal.NewFromFloat(total).
		Div(decimal.NewFromInt(int64(quantity))).
		Round(2).Float64()
	return f, nil
}

// ApplyDiscount recomputes the cascade from price_before_vat downward only.
// Markup and every earlier stage stay untouched; VAT and the total are
// re-derived from the discounted price.
func (c *Calculator) ApplyDiscount(calc QuoteCalculation, discountPct float64) (QuoteCalculation, error) {
	if discountPct < 0 || discountPct > 1 {
		return QuoteCalculation{}, errors.NewInvalidDiscountError(discountPct)
	}

	discounted := mulRound2(calc.PriceBeforeVAT, 1-discountPct)
	newVAT := mulRound2(discounted, c.vatPct)
	newTotal := addRound2(discounted, newVAT)

	out := calc
	out.PriceBeforeVAT = discounted
	out.VATPct = c.vatPct
	out.VATValue = newVAT
	out.Total = newTotal
	return out, nil
}

// BreakdownSummary formats the calculation for terminal display.
func BreakdownSummary(calc QuoteCalculation) string {
	var b strings.Builder
	b.WriteString("Quote Breakdown\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	b.WriteString("Materials:\n")

	for _, line := range calc.Lines {
		fmt.Fprintf(&b, "  %s: %.2f %s @ %.2f = %.2f\n",
			line.Name, line.Qty, line.Unit, line.UnitCost, line.LineCost)
	}

	fmt.Fprintf(&b, "\nMaterials Subtotal: %.2f\n", calc.MaterialsSubtotal)
	fmt.Fprintf(&b, "Labor (%.2fh @ %.2f/h): %.2f\n", calc.LaborHours, calc.LaborRate, calc.LaborCost)
	fmt.Fprintf(&b, "Subtotal: %.2f\n\n", calc.Subtotal)
	fmt.Fprintf(&b, "Markup (%.0f%%): %.2f\n", calc.MarkupPct*100, calc.MarkupValue)
	fmt.Fprintf(&b, "Price before VAT: %.2f\n\n", calc.PriceBeforeVAT)
	fmt.Fprintf(&b, "VAT (%.0f%%): %.2f\n\n", calc.VATPct*100, calc.VATValue)
	fmt.Fprintf(&b, "TOTAL: %.2f", calc.Total)

	return b.String()
}
