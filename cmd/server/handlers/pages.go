package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/kimhsiao/timecapsule/internal/logging"
)

//go:embed templates/*.html templates/intro.md
var templateFS embed.FS

// PageHandler renders the HTML pages.
type PageHandler struct {
	index  *template.Template
	memory *template.Template
	intro  template.HTML
}

// NewPageHandler parses the embedded templates and renders the intro copy.
func NewPageHandler() (*PageHandler, error) {
	source, err := templateFS.ReadFile("templates/intro.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read intro: %w", err)
	}

	intro, err := renderMarkdown(source)
	if err != nil {
		return nil, err
	}

	index, err := template.ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	memoryPage, err := template.ParseFS(templateFS, "templates/layout.html", "templates/memory.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse memory template: %w", err)
	}

	return &PageHandler{index: index, memory: memoryPage, intro: intro}, nil
}

// renderMarkdown converts trusted, embedded markdown to HTML.
func renderMarkdown(source []byte) (template.HTML, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Typographer))
	var buf bytes.Buffer
	if err := md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Index handles GET /
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.index, map[string]interface{}{
		"Title": "Time Capsule",
		"Intro": h.intro,
	})
}

// Memory handles GET /memory/{id}
func (h *PageHandler) Memory(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.memory, map[string]interface{}{
		"Title":    "A memory",
		"MemoryID": r.PathValue("id"),
	})
}

func (h *PageHandler) render(w http.ResponseWriter, tmpl *template.Template, data map[string]interface{}) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.Error("Failed to render page", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
