package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Warning surfaces a best-effort fallback taken while transforming a
// document. The pipeline never fails a document outright; callers decide
// whether warnings are worth logging or aborting on.
type Warning struct {
	Stage   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}

// Renderer turns one source markdown document into destination storage
// markup. It is stateless and deterministic: the same input yields the same
// markup and warnings, with no I/O anywhere in the pipeline.
type Renderer struct {
	sanitizer *Sanitizer
	markdown  goldmark.Markdown
}

// NewRenderer constructs the transformation pipeline.
func NewRenderer() *Renderer {
	return &Renderer{
		sanitizer: NewSanitizer(),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render runs the full pipeline: metadata strip, HTML sanitisation,
// duplicate-link collapse, bang-admonition normalisation, markdown to HTML,
// admonition macro conversion, and multi-line code macro conversion.
// Admonition conversion failures are absorbed: the document passes through
// that stage unmodified with a warning attached.
func (r *Renderer) Render(raw string) (string, []Warning) {
	var warnings []Warning

	content := StripMetadata(raw)

	content, sanitizeWarnings := r.sanitizer.Sanitize(content)
	warnings = append(warnings, sanitizeWarnings...)

	content = CollapseDuplicateLinks(content)
	content = ConvertBangAdmonitions(content)

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(content), &buf); err != nil {
		warnings = append(warnings, Warning{
			Stage:   "markdown",
			Message: fmt.Sprintf("conversion failed, keeping markdown body: %v", err),
		})
		return content, warnings
	}
	markup := buf.String()

	converted, admonitionWarnings, err := ConvertAdmonitions(markup)
	warnings = append(warnings, admonitionWarnings...)
	if err != nil {
		warnings = append(warnings, Warning{
			Stage:   "admonitions",
			Message: fmt.Sprintf("conversion failed, keeping document unmodified: %v", err),
		})
	} else {
		markup = converted
	}

	markup = ConvertCodeBlocks(markup)

	return markup, warnings
}
