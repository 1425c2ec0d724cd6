// internal/render/markdown_test.go
package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
)

func completeData() map[string]string {
	return map[string]string{
		"quote_id":           "Q-20260829-ABCD1234",
		"quote_date":         "2026-08-29",
		"valid_until":        "2026-09-28",
		"due_date":           "2026-09-05",
		"company_name":       "The Artisan Bakery",
		"customer_name":      "Alex Doe",
		"job_type":           "cupcakes",
		"quantity":           "24",
		"currency":           "GBP",
		"notes":              "",
		"materials_subtotal": "9.22",
		"labor_hours":        "1.2",
		"labor_rate":         "15.00",
		"labor_cost":         "18.00",
		"subtotal":           "27.22",
		"markup_pct":         "30%",
		"markup_value":       "8.17",
		"price_before_vat":   "35.39",
		"vat_pct":            "20%",
		"vat_value":          "7.08",
		"total":              "42.47",
		"unit_price":         "1.77",
	}
}

func newTestRenderer(t *testing.T) (*MarkdownRenderer, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := NewMarkdownRenderer("", dir, logger.NewTestLogger(t))
	require.NoError(t, err)
	return r, dir
}

func TestRenderWritesDocument(t *testing.T) {
	r, dir := newTestRenderer(t)

	path, err := r.Render(completeData())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Q-20260829-ABCD1234.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(content)
	assert.Contains(t, doc, "# Quotation Q-20260829-ABCD1234")
	assert.Contains(t, doc, "The Artisan Bakery")
	assert.Contains(t, doc, "| Markup (30%) | 8.17 |")
	assert.Contains(t, doc, "**42.47**")
	assert.Contains(t, doc, "valid until 2026-09-28")
}

func TestRenderMissingRequiredKey(t *testing.T) {
	r, dir := newTestRenderer(t)

	data := completeData()
	data["customer_name"] = ""
	delete(data, "total")

	_, err := r.Render(data)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeIncompleteQuote))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "nothing must be written on validation failure")
}

func TestRenderNotesSectionOptional(t *testing.T) {
	r, _ := newTestRenderer(t)

	data := completeData()
	path, err := r.Render(data)
	require.NoError(t, err)
	content, _ := os.ReadFile(path)
	assert.NotContains(t, string(content), "## Notes")

	data["notes"] = "Please deliver before noon."
	path, err = r.Render(data)
	require.NoError(t, err)
	content, _ = os.ReadFile(path)
	assert.Contains(t, string(content), "## Notes")
	assert.Contains(t, string(content), "Please deliver before noon.")
}

func TestRenderCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.md")
	require.NoError(t, os.WriteFile(custom, []byte("Quote {{.quote_id}} total {{.total}} {{.currency}}\n"), 0o644))

	r, err := NewMarkdownRenderer(custom, dir, logger.NewTestLogger(t))
	require.NoError(t, err)

	path, err := r.Render(completeData())
	require.NoError(t, err)
	content, _ := os.ReadFile(path)
	assert.Equal(t, "Quote Q-20260829-ABCD1234 total 42.47 GBP\n", string(content))
}

func TestNewMarkdownRendererBadTemplate(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.md")
	require.NoError(t, os.WriteFile(bad, []byte("{{.unclosed"), 0o644))

	_, err := NewMarkdownRenderer(bad, dir, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTemplateRenderFailed))

	_, err = NewMarkdownRenderer(filepath.Join(dir, "missing.md"), dir, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTemplateRenderFailed))
}
