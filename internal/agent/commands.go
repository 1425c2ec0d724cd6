// internal/agent/commands.go
package agent

import "github.com/liduanken/bakery-quotation-agent/internal/common/validation"

// Command names accepted by the dispatcher.
const (
	CmdProvideField     = "provide_field"
	CmdRequestBOM       = "request_bom"
	CmdRequestCosts     = "request_costs"
	CmdConfirmAndRender = "confirm_and_render"
	CmdResetQuote       = "reset_quote"
)

// provideFieldSchema accepts one gathered conversation field per call.
var provideFieldSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"field": {
			Type:        "string",
			Description: "Which conversation field is being provided",
			Enum:        []string{"job_type", "quantity", "customer_name", "due_date", "notes"},
		},
		"value": {
			Type:        "string",
			Description: "The field value as given by the customer",
			MinLength:   intPtr(1),
			MaxLength:   intPtr(200),
		},
	},
	Required: []string{"field", "value"},
}

var emptySchema = validation.JSONSchema{
	Type:       "object",
	Properties: map[string]validation.Property{},
}

// CommandSchemas maps each command to its payload schema.
var CommandSchemas = map[string]validation.JSONSchema{
	CmdProvideField:     provideFieldSchema,
	CmdRequestBOM:       emptySchema,
	CmdRequestCosts:     emptySchema,
	CmdConfirmAndRender: emptySchema,
	CmdResetQuote:       emptySchema,
}

// CommandNames lists the supported commands in conversation order.
func CommandNames() []string {
	return []string{CmdProvideField, CmdRequestBOM, CmdRequestCosts, CmdConfirmAndRender, CmdResetQuote}
}

func intPtr(v int) *int { return &v }
