package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	TemplateWelcome      = "welcome"
	TemplateLoanCreated  = "loan_created"
	TemplateLoanReturned = "loan_returned"
	TemplateLoanOverdue  = "loan_overdue"
)

// Renderer renders embedded email templates inside the shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses every template. It fails only on a broken template.
func NewRenderer() (*Renderer, error) {
	names := []string{TemplateWelcome, TemplateLoanCreated, TemplateLoanReturned, TemplateLoanOverdue}
	r := &Renderer{templates: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render returns the subject line and HTML body of a template.
func (r *Renderer) Render(name string, data interface{}) (subject, body string, err error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	// Subjects are plain text headers, not HTML.
	subject = html.UnescapeString(strings.TrimSpace(buf.String()))

	buf.Reset()
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	return subject, buf.String(), nil
}
