package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/web"
)

// RenderObserver receives the timing of every page render.
type RenderObserver interface {
	Observe(component string, start time.Time)
}

// Engine renders HTML templates. Every page is parsed into its own clone of
// the shared layouts and partials so pages can redefine "content" freely.
type Engine struct {
	pages    map[string]*template.Template
	observer RenderObserver
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Principal   *shared.Principal
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	base, err := template.New("root").Funcs(funcMap()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse layouts: %w", err)
	}

	pages := make(map[string]*template.Template)
	err = fs.WalkDir(web.Templates, "templates/pages", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".html" {
			return nil
		}
		clone, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := clone.ParseFS(web.Templates, p); err != nil {
			return fmt.Errorf("view: parse %s: %w", p, err)
		}
		pages[strings.TrimPrefix(p, "templates/")] = clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Engine{pages: pages}, nil
}

// SetObserver installs the render observer, typically the perf tracker.
func (e *Engine) SetObserver(o RenderObserver) {
	e.observer = o
}

// Has reports whether a page template exists.
func (e *Engine) Has(name string) bool {
	_, ok := e.pages[name]
	return ok
}

// Render executes the named page with TemplateData. Output is buffered so a
// failing template never produces a partial page.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	tpl, ok := e.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	start := time.Now()
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "page", data); err != nil {
		return fmt.Errorf("view: execute %s: %w", name, err)
	}
	if e.observer != nil {
		e.observer.Observe(name, start)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	_, err := buf.WriteTo(w)
	return err
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2006")
		},
		"can": func(p *shared.Principal, perm string) bool {
			return rbac.Can(p, rbac.Permission(perm))
		},
		"join": strings.Join,
		"active": func(current, prefix string) bool {
			if prefix == "/" || prefix == "/admin" {
				return current == prefix
			}
			return strings.HasPrefix(current, prefix)
		},
		"ms": func(d time.Duration) string {
			return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
		},
		"truncate": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return string(r[:n]) + "…"
		},
		"contains": func(list []string, v string) bool {
			for _, item := range list {
				if item == v {
					return true
				}
			}
			return false
		},
	}
}
