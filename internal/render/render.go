// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the public site:
// the content listing and the gate page in its locked, form, unlocking,
// and unlocked variants. Templates are embedded at compile time.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"growthgate/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageTemplates lists the page templates paired with the base layout.
var pageTemplates = []string{"home", "content"}

// HomeData is the payload for the listing page.
type HomeData struct {
	Title     string
	Resources []models.ContentSummary
	Articles  []models.ContentSummary
	Cases     []models.ContentSummary
}

// ContentData is the payload for the gate page. Exactly one of the
// state flags drives the template; BodyHTML is only ever populated on
// the unlocked path.
type ContentData struct {
	Title       string
	Slug        string
	Kind        models.ContentKind
	State       string // gate state string: locked, form_open, unlocking, unlocked
	ExcerptHTML template.HTML
	BodyHTML    template.HTML
	DownloadURL string
	FormError   string
	FormName    string
	FormEmail   string
	FormTag     string
}

// Renderer handles template parsing and execution for public pages.
type Renderer struct {
	templates map[string]*template.Template
}

// New creates a Renderer by parsing the embedded templates. Each page
// template is paired with the base layout.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	funcs := template.FuncMap{
		"kindPath": func(k models.ContentKind) string { return k.PathSegment() },
	}

	for _, name := range pageTemplates {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %q: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render executes the named page template with data and returns the
// resulting HTML. Rendering to a buffer first keeps half-written pages
// out of responses.
func (r *Renderer) Render(name string, data any) ([]byte, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %q: %w", name, err)
	}
	return buf.Bytes(), nil
}
