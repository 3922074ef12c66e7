// Package render executes the embedded HTML page templates for Echo.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/anonto42/yatube/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

//go:embed templates
var templateFS embed.FS

const layout = "base"

// Renderer implements echo.Renderer. Each page is parsed together with the
// shared layout and includes, once, at startup.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page under templates/ except the layout and includes.
func New() (*Renderer, error) {
	shared, err := template.New(layout).Funcs(Funcs()).ParseFS(templateFS,
		"templates/base.html", "templates/includes/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parsing layout: %w", err)
	}

	pages := make(map[string]*template.Template)
	files, err := fs.Glob(templateFS, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		name := strings.TrimPrefix(file, "templates/")
		if strings.HasPrefix(name, "includes/") {
			continue
		}
		page, err := shared.Clone()
		if err != nil {
			return nil, err
		}
		if page, err = page.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("render: parsing %s: %w", name, err)
		}
		pages[name] = page
	}
	return &Renderer{pages: pages}, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes page name. Map data gets the current user added under
// "user" unless the handler set it already.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	page, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("render: no template %q", name)
	}
	if m, ok := data.(map[string]interface{}); ok && c != nil {
		if _, set := m["user"]; !set {
			m["user"] = middleware.CurrentUser(c)
		}
	}
	return page.ExecuteTemplate(w, layout, data)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"date":          formatDate,
		"truncatewords": truncateWords,
		"linebreaksbr":  linebreaksBR,
	}
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

func linebreaksBR(s string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
