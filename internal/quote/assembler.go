// internal/quote/assembler.go
package quote

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
)

// DefaultValidDays is how long a quote stays open when no validity is given.
const DefaultValidDays = 30

// Metadata carries the customer-facing fields the calculator cannot know.
type Metadata struct {
	QuoteID      string
	QuoteDate    string
	ValidUntil   string
	DueDate      string
	CompanyName  string
	CustomerName string
	JobType      string
	Quantity     int
	Currency     string
	Notes        string
}

// QuoteRecord is the complete, assembled quote. It is built once by Assemble
// and treated as immutable afterwards.
type QuoteRecord struct {
	QuoteID      string `json:"quote_id"`
	QuoteDate    string `json:"quote_date"`
	ValidUntil   string `json:"valid_until"`
	DueDate      string `json:"due_date,omitempty"`
	CompanyName  string `json:"company_name"`
	CustomerName string `json:"customer_name"`
	JobType      string `json:"job_type"`
	Quantity     int    `json:"quantity"`
	Currency     string `json:"currency"`
	Notes        string `json:"notes,omitempty"`

	Calculation pricing.QuoteCalculation `json:"calculation"`
	UnitPrice   float64                  `json:"unit_price"`
}

// Assemble merges calculation output with quote metadata into a QuoteRecord.
// Every missing mandatory field is reported in a single error so the caller
// can fix the whole set at once.
func Assemble(calc pricing.QuoteCalculation, meta Metadata) (*QuoteRecord, error) {
	record := &QuoteRecord{
		QuoteID:      meta.QuoteID,
		QuoteDate:    meta.QuoteDate,
		ValidUntil:   meta.ValidUntil,
		DueDate:      meta.DueDate,
		CompanyName:  meta.CompanyName,
		CustomerName: meta.CustomerName,
		JobType:      meta.JobType,
		Quantity:     meta.Quantity,
		Currency:     meta.Currency,
		Notes:        meta.Notes,
		Calculation:  calc,
	}
	if record.QuoteDate == "" {
		record.QuoteDate = QuoteDate(time.Now())
	}
	if record.ValidUntil == "" {
		record.ValidUntil = ValidUntil(time.Now(), DefaultValidDays)
	}

	if err := validateRecord(record); err != nil {
		return nil, err
	}

	record.UnitPrice = pricing.Round2(calc.Total / float64(record.Quantity))
	return record, nil
}

// validateRecord collects every missing mandatory field into one
// IncompleteQuoteError instead of stopping at the first.
func validateRecord(r *QuoteRecord) error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.QuoteID, validation.Required),
		validation.Field(&r.CompanyName, validation.Required),
		validation.Field(&r.CustomerName, validation.Required),
		validation.Field(&r.JobType, validation.Required),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&r.Currency, validation.Required),
	)
	totalMissing := r.Calculation.Total <= 0
	if err == nil && !totalMissing {
		return nil
	}

	// validation.Errors is keyed by the json tag of each field.
	order := []string{"quote_id", "company_name", "customer_name", "job_type", "quantity"}

	var missing []string
	verrs, _ := err.(validation.Errors)
	for _, name := range order {
		if _, bad := verrs[name]; bad {
			missing = append(missing, name)
		}
	}
	if totalMissing {
		missing = append(missing, "total")
	}
	if _, bad := verrs["currency"]; bad {
		missing = append(missing, "currency")
	}
	return errors.NewIncompleteQuoteError(missing)
}

// TemplateData flattens a record into display strings for the renderer.
// Money values are fixed to two decimals, percentages to whole numbers.
func TemplateData(r *QuoteRecord) map[string]string {
	c := r.Calculation
	data := map[string]string{
		"quote_id":           r.QuoteID,
		"quote_date":         r.QuoteDate,
		"valid_until":        r.ValidUntil,
		"due_date":           r.DueDate,
		"company_name":       r.CompanyName,
		"customer_name":      r.CustomerName,
		"job_type":           r.JobType,
		"quantity":           fmt.Sprintf("%d", r.Quantity),
		"currency":           r.Currency,
		"notes":              r.Notes,
		"materials_subtotal": money(c.MaterialsSubtotal),
		"labor_hours":        fmt.Sprintf("%g", c.LaborHours),
		"labor_rate":         money(c.LaborRate),
		"labor_cost":         money(c.LaborCost),
		"subtotal":           money(c.Subtotal),
		"markup_pct":         percent(c.MarkupPct),
		"markup_value":       money(c.MarkupValue),
		"price_before_vat":   money(c.PriceBeforeVAT),
		"vat_pct":            percent(c.VATPct),
		"vat_value":          money(c.VATValue),
		"total":              money(c.Total),
		"unit_price":         money(r.UnitPrice),
	}
	return data
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func percent(fraction float64) string {
	return fmt.Sprintf("%.0f%%", fraction*100)
}
