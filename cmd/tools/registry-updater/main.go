// cmd/tools/registry-updater/main.go
//
// Regenerates the published command catalog from the agent's schemas.
// Run after changing any command payload:
//
//	go run ./cmd/tools/registry-updater -out configs/command_registry.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/liduanken/bakery-quotation-agent/internal/agent"
	"github.com/liduanken/bakery-quotation-agent/pkg/registry"
)

var commandMeta = map[string]struct {
	description string
	errorCodes  []string
	retries     int
}{
	agent.CmdProvideField: {
		description: "Record one gathered conversation field",
		errorCodes:  []string{"INVALID_COMMAND", "INVALID_QUANTITY"},
	},
	agent.CmdRequestBOM: {
		description: "Estimate the bill of materials for the gathered job",
		errorCodes:  []string{"PRECONDITION_FAILED", "INVALID_QUANTITY", "UNKNOWN_JOB_TYPE", "BOM_CONNECTION_FAILED"},
		retries:     3,
	},
	agent.CmdRequestCosts: {
		description: "Look up unit costs for every estimated material",
		errorCodes:  []string{"PRECONDITION_FAILED", "INCOMPATIBLE_UNITS", "MATERIAL_LOOKUP_FAILED"},
		retries:     3,
	},
	agent.CmdConfirmAndRender: {
		description: "Price the quote and render the customer document",
		errorCodes:  []string{"PRECONDITION_FAILED", "INCOMPLETE_QUOTE", "TEMPLATE_RENDER_FAILED"},
	},
	agent.CmdResetQuote: {
		description: "Discard the conversation and start over",
	},
}

func main() {
	out := flag.String("out", "configs/command_registry.json", "output path for the catalog")
	version := flag.String("version", "1.0", "catalog version")
	flag.Parse()

	reg := &registry.Registry{Version: *version}
	for _, name := range agent.CommandNames() {
		schema, err := json.Marshal(agent.CommandSchemas[name])
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal schema for %s: %v\n", name, err)
			os.Exit(1)
		}
		meta := commandMeta[name]
		reg.Commands = append(reg.Commands, registry.Entry{
			Command:     name,
			Description: meta.description,
			InputSchema: schema,
			ErrorCodes:  meta.errorCodes,
			Retries:     meta.retries,
		})
	}

	if err := reg.Save(*out); err != nil {
		fmt.Fprintf(os.Stderr, "write catalog: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d commands to %s\n", len(reg.Commands), *out)
}
