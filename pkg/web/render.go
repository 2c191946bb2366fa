// Package web renders the directory as an HTML page.
package web

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/lepinkainen/nsite-directory/pkg/directory"
)

// DirectoryTemplate is the page template file name
const DirectoryTemplate = "directory.html.tmpl"

// DefaultTitle is the page heading
const DefaultTitle = "nsite directory"

// Page is the data passed to the directory template
type Page struct {
	Title     string
	Query     string
	Featured  bool
	Cards     []*directory.Card
	Generated time.Time
}

// Renderer executes the directory template
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer loads the directory template, preferring a local override
func NewRenderer() (*Renderer, error) {
	content, source, err := readTemplate(DirectoryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", DirectoryTemplate, err)
	}

	tmpl, err := template.New(DirectoryTemplate).Funcs(templateFuncs()).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", DirectoryTemplate, err)
	}

	slog.Debug("Loaded template", "name", DirectoryTemplate, "source", source)
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes page as HTML
func (r *Renderer) Render(w io.Writer, page Page) error {
	if page.Title == "" {
		page.Title = DefaultTitle
	}
	if page.Generated.IsZero() {
		page.Generated = time.Now().UTC()
	}

	if err := r.tmpl.Execute(w, page); err != nil {
		return fmt.Errorf("failed to execute template %s: %w", DirectoryTemplate, err)
	}

	slog.Debug("Rendered directory", "cards", len(page.Cards))
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": formatTime,
		"formatDate": formatDate,
		"truncate":   truncateText,
	}
}

// formatTime formats time in RFC3339
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// truncateText shortens s to at most maxLen runes
func truncateText(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
