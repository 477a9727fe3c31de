// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin interface
// and the public language switcher.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"siteflags/internal/middleware"
	"siteflags/internal/session"
)

//go:embed templates/admin/*.html templates/public/*.html
var templateFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active navigation section (e.g., "sites", "modules")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms
	Styles    template.HTML  // <link> tags of enqueued styles
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
	Status    int            // Response status, 200 when zero
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// StyleSource provides the stylesheet tags of a page context.
type StyleSource interface {
	StyleTags() template.HTML
}

// Renderer handles template parsing and execution.
type Renderer struct {
	templates   map[string]*template.Template
	adminStyles StyleSource
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout.
var standaloneTemplates = map[string]bool{
	"login":      true,
	"2fa_setup":  true,
	"2fa_verify": true,
}

var funcMap = template.FuncMap{
	"activeClass": func(current, target string) string {
		if current == target {
			return "active"
		}
		return ""
	},
	// safeHTML marks markup produced by extension points as trusted.
	"safeHTML": func(s string) template.HTML {
		return template.HTML(s)
	},
}

// New parses all admin and public templates from the embedded filesystem.
// Each admin page template is paired with the base layout. adminStyles may
// be nil.
func New(adminStyles StyleSource) (*Renderer, error) {
	r := &Renderer{
		templates:   make(map[string]*template.Template),
		adminStyles: adminStyles,
	}

	entries, err := templateFS.ReadDir("templates/admin")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		files := []string{"templates/admin/base.html", "templates/admin/" + name}
		root := "base.html"
		if standaloneTemplates[tmplName] {
			files = files[1:]
			root = name
		}

		tmpl, err := template.New(root).Funcs(funcMap).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[tmplName] = tmpl
	}

	menu, err := template.New("menu.html").Funcs(funcMap).ParseFS(templateFS, "templates/public/menu.html")
	if err != nil {
		return nil, fmt.Errorf("parse template menu.html: %w", err)
	}
	r.templates[publicPrefix+"menu"] = menu

	return r, nil
}

const publicPrefix = "public/"

// Page renders a full admin page. The CSRF token and session are injected
// from the request; the admin styles are used unless data carries its own.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())
	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}
	if data.Styles == "" && rn.adminStyles != nil {
		data.Styles = rn.adminStyles.StyleTags()
	}

	execName := "base.html"
	if standaloneTemplates[name] {
		execName = name + ".html"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, execName, data); err != nil {
		slog.Error("template execution failed", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if data.Status != 0 {
		w.WriteHeader(data.Status)
	}
	buf.WriteTo(w)
}

// MenuItem is one entry of the public language switcher. Title is HTML
// produced by the menu title filters.
type MenuItem struct {
	SiteID   int64
	Title    string
	URL      string
	Language string
	Current  bool
}

// MenuData holds the data of the public language switcher.
type MenuData struct {
	SiteName string
	Language string
	Styles   template.HTML
	Items    []MenuItem
}

// Menu writes the public language switcher page to w.
func (rn *Renderer) Menu(w io.Writer, data *MenuData) error {
	tmpl, ok := rn.templates[publicPrefix+"menu"]
	if !ok {
		return fmt.Errorf("template %q not found", "menu")
	}
	return tmpl.ExecuteTemplate(w, "menu.html", data)
}

// Has reports whether a page template is loaded.
func (rn *Renderer) Has(name string) bool {
	_, ok := rn.templates[name]
	return ok
}
