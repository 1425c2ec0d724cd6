// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `{
  "version": "1.0",
  "commands": [
    {
      "command": "provide_field",
      "description": "Record one gathered conversation field",
      "input_schema": {
        "type": "object",
        "properties": {
          "field": {"type": "string", "enum": ["job_type", "quantity", "customer_name", "due_date", "notes"]},
          "value": {"type": "string", "minLength": 1}
        },
        "required": ["field", "value"],
        "additionalProperties": false
      },
      "error_codes": ["INVALID_COMMAND", "INVALID_QUANTITY"],
      "retries": 0
    },
    {
      "command": "request_bom",
      "description": "Estimate materials for the gathered job",
      "input_schema": {"type": "object", "properties": {}, "additionalProperties": false},
      "error_codes": ["PRECONDITION_FAILED", "UNKNOWN_JOB_TYPE", "BOM_CONNECTION_FAILED"],
      "retries": 3
    }
  ]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleRegistry), 0o644))
	return path
}

func TestLoadAndFind(t *testing.T) {
	reg, err := Load(writeSample(t))
	require.NoError(t, err)

	assert.Equal(t, "1.0", reg.Version)
	require.Len(t, reg.Commands, 2)

	entry := reg.Find("request_bom")
	require.NotNil(t, entry)
	assert.Equal(t, 3, entry.Retries)
	assert.Contains(t, entry.ErrorCodes, "BOM_CONNECTION_FAILED")

	assert.Nil(t, reg.Find("make_coffee"))
}

func TestValidatePayload(t *testing.T) {
	reg, err := Load(writeSample(t))
	require.NoError(t, err)

	violations, err := reg.ValidatePayload("provide_field",
		map[string]interface{}{"field": "quantity", "value": "24"})
	require.NoError(t, err)
	assert.Empty(t, violations)

	violations, err = reg.ValidatePayload("provide_field",
		map[string]interface{}{"field": "favourite_color", "value": "blue"})
	require.NoError(t, err)
	assert.NotEmpty(t, violations)

	violations, err = reg.ValidatePayload("provide_field",
		map[string]interface{}{"field": "quantity"})
	require.NoError(t, err)
	assert.NotEmpty(t, violations, "missing required value")

	_, err = reg.ValidatePayload("make_coffee", nil)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	reg, err := Load(writeSample(t))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, reg.Save(out))

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Len(t, reloaded.Commands, 2)
	assert.Equal(t, "provide_field", reloaded.Commands[0].Command, "saved commands are sorted")
}
