// internal/render/markdown.go
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/liduanken/bakery-quotation-agent/internal/common/errors"
	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
)

//go:embed template.md
var defaultTemplate string

// requiredKeys are the placeholders every quote document needs. Rendering
// fails before writing anything when one is absent.
var requiredKeys = []string{
	"quote_id", "company_name", "customer_name", "job_type", "quantity",
	"currency", "total", "quote_date", "valid_until",
}

// Renderer produces a customer-facing quote document from display data.
type Renderer interface {
	Render(data map[string]string) (string, error)
}

// Uploader publishes a rendered document somewhere a customer can reach it
// and returns the public location.
type Uploader interface {
	Upload(localPath string) (string, error)
}

// MarkdownRenderer writes markdown quote documents to an output directory.
// With no template path configured it uses the built-in layout.
type MarkdownRenderer struct {
	tmpl      *template.Template
	outputDir string
	logger    logger.Logger
}

// NewMarkdownRenderer loads the template at templatePath, or the built-in
// one when templatePath is empty.
func NewMarkdownRenderer(templatePath, outputDir string, log logger.Logger) (*MarkdownRenderer, error) {
	source := defaultTemplate
	if templatePath != "" {
		raw, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, errors.NewTemplateRenderFailedError(fmt.Errorf("read template %s: %w", templatePath, err))
		}
		source = string(raw)
	}

	tmpl, err := template.New("quote").Option("missingkey=error").Parse(source)
	if err != nil {
		return nil, errors.NewTemplateRenderFailedError(err)
	}
	return &MarkdownRenderer{tmpl: tmpl, outputDir: outputDir, logger: log}, nil
}

// Render validates the data, renders the document, and writes it to the
// output directory as <quote_id>.md. Returns the written file path.
func (r *MarkdownRenderer) Render(data map[string]string) (string, error) {
	var missing []string
	for _, key := range requiredKeys {
		if data[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "", errors.NewIncompleteQuoteError(missing)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", errors.NewTemplateRenderFailedError(err)
	}

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", errors.NewTemplateRenderFailedError(err)
	}
	path := filepath.Join(r.outputDir, data["quote_id"]+".md")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.NewTemplateRenderFailedError(err)
	}

	r.logger.Info("quote document rendered", map[string]interface{}{
		"quote_id": data["quote_id"],
		"path":     path,
	})
	return path, nil
}
