// Package render is a gin HTMLRender over html/template. Every page is parsed
// once at startup together with the base layout and the shared partials.
package render

import (
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
)

const (
	layoutFile     = "base.layout.html"
	pageSuffix     = ".page.html"
	partialPattern = "*.partial.html"
	rootTemplate   = "base"
)

var Funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"truncateWords": truncateWords,
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	// selected reports whether a form value names the entity with id.
	"selected": func(value string, id uint) bool {
		return value == strconv.FormatUint(uint64(id), 10)
	},
	"media": func(path string) string { return "/media/" + strings.TrimPrefix(path, "/") },
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

// HTML implements render.HTMLRender.
type HTML struct {
	pages map[string]*template.Template
}

// New parses every *.page.html in fsys.
func New(fsys fs.FS) (*HTML, error) {
	pages, err := fs.Glob(fsys, "*"+pageSuffix)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no %s templates found", pageSuffix)
	}
	partials, err := fs.Glob(fsys, partialPattern)
	if err != nil {
		return nil, err
	}

	h := &HTML{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		name := strings.TrimSuffix(page, pageSuffix)
		files := append([]string{layoutFile}, partials...)
		files = append(files, page)

		t, err := template.New(name).Funcs(Funcs).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		h.pages[name] = t
	}
	return h, nil
}

// Has reports whether a page template named name exists.
func (h *HTML) Has(name string) bool {
	_, ok := h.pages[name]
	return ok
}

func (h *HTML) Instance(name string, data any) render.Render {
	t, ok := h.pages[name]
	if !ok {
		return render.Data{
			ContentType: "text/plain; charset=utf-8",
			Data:        []byte("template " + name + " not found"),
		}
	}
	return render.HTML{Template: t, Name: rootTemplate, Data: data}
}
