// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// Entry describes one agent command in the published catalog.
type Entry struct {
	Command     string          `json:"command"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
	ErrorCodes  []string        `json:"error_codes,omitempty"`
	Retries     int             `json:"retries"`
}

// Registry is the catalog of commands a client may send.
type Registry struct {
	Version  string  `json:"version"`
	Commands []Entry `json:"commands"`
}

// Load reads and parses a registry file.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var reg Registry
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry with stable ordering and indentation.
func (r *Registry) Save(path string) error {
	sort.Slice(r.Commands, func(i, j int) bool {
		return r.Commands[i].Command < r.Commands[j].Command
	})
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

// Find returns the entry for a command, or nil when unknown.
func (r *Registry) Find(command string) *Entry {
	for i := range r.Commands {
		if r.Commands[i].Command == command {
			return &r.Commands[i]
		}
	}
	return nil
}

// ValidatePayload checks a payload against the command's published schema.
// It returns the human-readable violations, empty when the payload is valid.
func (r *Registry) ValidatePayload(command string, payload map[string]interface{}) ([]string, error) {
	entry := r.Find(command)
	if entry == nil {
		return nil, fmt.Errorf("unknown command %q", command)
	}

	schemaLoader := gojsonschema.NewBytesLoader(entry.InputSchema)
	docLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("validate %q payload: %w", command, err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
