// internal/agent/dispatcher.go
package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/common/validation"
	"github.com/liduanken/bakery-quotation-agent/internal/pipeline"
	"github.com/liduanken/bakery-quotation-agent/internal/session"
)

// Response is what a conversation turn sends back to the caller.
type Response struct {
	SessionID string                 `json:"session_id"`
	Stage     pipeline.Stage         `json:"stage"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Dispatcher validates command payloads and drives the session's pipeline.
type Dispatcher struct {
	pipeline *pipeline.Pipeline
	sessions session.Store
	logger   logger.Logger
}

// NewDispatcher wires the command layer over a pipeline and session store.
func NewDispatcher(p *pipeline.Pipeline, sessions session.Store, log logger.Logger) *Dispatcher {
	return &Dispatcher{pipeline: p, sessions: sessions, logger: log}
}

// Handle runs one command for the session. An empty sessionID starts a new
// conversation.
func (d *Dispatcher) Handle(ctx context.Context, sessionID, command string, payload map[string]interface{}) (*Response, error) {
	sess, err := d.session(sessionID)
	if err != nil {
		return nil, err
	}

	schema, ok := CommandSchemas[command]
	if !ok {
		return nil, errors.NewInvalidCommandError(command,
			"supported commands: "+strings.Join(CommandNames(), ", "))
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	if result := validation.ValidateInput(payload, schema); !result.Valid {
		return nil, errors.NewInvalidCommandError(command,
			strings.Join(result.GetErrorMessages(), "; "))
	}

	d.logger.Debug("handling command", map[string]interface{}{
		"session_id": sess.ID,
		"command":    command,
		"stage":      string(sess.State.Stage),
	})

	switch command {
	case CmdProvideField:
		return d.provideField(sess, payload)
	case CmdRequestBOM:
		return d.requestBOM(ctx, sess)
	case CmdRequestCosts:
		return d.requestCosts(ctx, sess)
	case CmdConfirmAndRender:
		return d.confirmAndRender(ctx, sess)
	case CmdResetQuote:
		return d.resetQuote(sess)
	}
	return nil, errors.NewInvalidCommandError(command, "unhandled command")
}

func (d *Dispatcher) session(id string) (*session.Session, error) {
	if id == "" {
		return d.sessions.Create(), nil
	}
	sess, ok := d.sessions.Get(id)
	if !ok {
		return nil, errors.NewInvalidCommandError("session",
			fmt.Sprintf("unknown session '%s'", id))
	}
	return sess, nil
}

func (d *Dispatcher) provideField(sess *session.Session, payload map[string]interface{}) (*Response, error) {
	field := payload["field"].(string)
	value := strings.TrimSpace(payload["value"].(string))

	state := sess.State
	switch field {
	case "job_type":
		state.JobType = value
	case "quantity":
		qty, err := strconv.Atoi(value)
		if err != nil || qty <= 0 {
			return nil, errors.NewInvalidQuantityError(qty)
		}
		state.Quantity = qty
	case "customer_name":
		state.CustomerName = value
	case "due_date":
		state.DueDate = value
	case "notes":
		state.Notes = value
	}

	msg := fmt.Sprintf("Recorded %s.", field)
	if missing := state.MissingFields(); len(missing) > 0 {
		msg += " Still needed: " + strings.Join(missing, ", ") + "."
	} else {
		msg += " All details gathered; ready to estimate materials."
	}
	return d.respond(sess, msg, nil), nil
}

func (d *Dispatcher) requestBOM(ctx context.Context, sess *session.Session) (*Response, error) {
	estimate, err := d.pipeline.ResolveBOM(ctx, sess.State)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Estimated materials for %d %s:\n", estimate.Quantity, estimate.JobType)
	for _, m := range estimate.Materials {
		fmt.Fprintf(&b, "  - %s\n", m.String())
	}
	fmt.Fprintf(&b, "Labor: %g hours", estimate.LaborHours)

	return d.respond(sess, b.String(), map[string]interface{}{"estimate": estimate}), nil
}

func (d *Dispatcher) requestCosts(ctx context.Context, sess *session.Session) (*Response, error) {
	result, err := d.pipeline.ResolveCosts(ctx, sess.State)
	if err != nil {
		return nil, err
	}

	if !result.Complete() {
		msg := fmt.Sprintf("No stored cost for: %s. Provide prices or adjust the estimate before pricing.",
			strings.Join(result.Missing, ", "))
		return d.respond(sess, msg, map[string]interface{}{"missing": result.Missing}), nil
	}

	var b strings.Builder
	b.WriteString("Material costs resolved:\n")
	for _, line := range sess.State.Lines {
		fmt.Fprintf(&b, "  - %s: %g %s @ %.2f = %.2f\n",
			line.Name, line.Qty, line.Unit, line.UnitCost, line.LineCost)
	}
	b.WriteString("Ready to price.")

	return d.respond(sess, b.String(), map[string]interface{}{"costs": result.Costs}), nil
}

func (d *Dispatcher) confirmAndRender(ctx context.Context, sess *session.Session) (*Response, error) {
	if _, err := d.pipeline.Price(ctx, sess.State); err != nil {
		return nil, err
	}
	record, path, err := d.pipeline.Render(ctx, sess.State)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Quote %s for %s: total %.2f %s.\nDocument written to %s",
		record.QuoteID, record.CustomerName, record.Calculation.Total, record.Currency, path)
	return d.respond(sess, msg, map[string]interface{}{
		"record": record,
		"path":   path,
	}), nil
}

func (d *Dispatcher) resetQuote(sess *session.Session) (*Response, error) {
	d.pipeline.Reset(sess.State)
	return d.respond(sess, "Quote reset. Let's start over: what are we baking?", nil), nil
}

func (d *Dispatcher) respond(sess *session.Session, msg string, data map[string]interface{}) *Response {
	return &Response{
		SessionID: sess.ID,
		Stage:     sess.State.Stage,
		Message:   msg,
		Data:      data,
	}
}
