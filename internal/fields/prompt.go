package fields

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/jackzampolin/pdfx/internal/schema"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for field extraction.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt: the label hint, one `"field": description`
// line per schema field in order, then the document text verbatim.
func UserPrompt(text string, s schema.Schema, label string) string {
	lines := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		lines = append(lines, `"`+f.Name+`": `+f.Description)
	}

	data := struct {
		Label      string
		SchemaText string
		Text       string
	}{
		Label:      label,
		SchemaText: strings.Join(lines, "\n"),
		Text:       text,
	}

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}
