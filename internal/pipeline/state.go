// internal/pipeline/state.go
package pipeline

import (
	"github.com/liduanken/bakery-quotation-agent/internal/models"
	"github.com/liduanken/bakery-quotation-agent/internal/pricing"
	"github.com/liduanken/bakery-quotation-agent/internal/quote"
)

// Stage names the steps of the quotation conversation, in order.
type Stage string

const (
	StageGathering     Stage = "gathering"
	StageBOMResolved   Stage = "bom_resolved"
	StageCostsResolved Stage = "costs_resolved"
	StagePriced        Stage = "priced"
	StageRendered      Stage = "rendered"
)

// ConversationState holds everything gathered and derived during one
// quotation conversation. Each session owns exactly one state; the pipeline
// mutates it, nothing else does.
type ConversationState struct {
	Stage Stage

	// Gathered from the customer.
	JobType      string
	Quantity     int
	CustomerName string
	DueDate      string
	Notes        string

	// Derived by pipeline steps.
	Estimate         *models.BOMEstimate
	Costs            map[string]models.MaterialCost
	Lines            []models.MaterialLine
	MissingMaterials []string
	Calculation      *pricing.QuoteCalculation
	Record           *quote.QuoteRecord
	DocumentPath     string
}

// NewConversationState starts a fresh conversation in the gathering stage.
func NewConversationState() *ConversationState {
	return &ConversationState{Stage: StageGathering}
}

// MissingFields lists the required conversation fields not yet provided,
// in a stable order.
func (s *ConversationState) MissingFields() []string {
	var missing []string
	if s.JobType == "" {
		missing = append(missing, "job_type")
	}
	if s.Quantity <= 0 {
		missing = append(missing, "quantity")
	}
	if s.CustomerName == "" {
		missing = append(missing, "customer_name")
	}
	if s.DueDate == "" {
		missing = append(missing, "due_date")
	}
	return missing
}

// Reset returns the conversation to a blank gathering state. It succeeds
// from any stage and clears gathered and derived data alike.
func (s *ConversationState) Reset() {
	*s = ConversationState{Stage: StageGathering}
}

// clearDerived drops everything computed from the current inputs. Called
// when an earlier step re-runs and downstream results go stale.
func (s *ConversationState) clearDerived() {
	s.Estimate = nil
	s.Costs = nil
	s.Lines = nil
	s.MissingMaterials = nil
	s.Calculation = nil
	s.Record = nil
	s.DocumentPath = ""
}
