package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

const layoutFile = "layout.html"

// Renderer holds one template set per page, each built on its own copy of
// the shared layout so pages cannot redefine each other's blocks.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every *.html page in fsys on top of layout.html. Pages
// are keyed by file name without the extension.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	layout, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(fsys, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", layoutFile, err)
	}

	files, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		page, err := template.Must(layout.Clone()).ParseFS(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(file, ".html")] = page
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// RenderHTTP writes page with status. Output is buffered, so a template
// error becomes a clean 500 instead of half a page.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := r.render(&buf, page, data); err != nil {
		r.logger.Error("render failed", slog.String("page", page), slog.Any("error", err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (r *Renderer) render(buf *bytes.Buffer, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("no page named %q", page)
	}
	return tmpl.ExecuteTemplate(buf, "base", data)
}
