// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers groups the HTTP handlers: the public HTML site with
// its gated content pages, the JSON API, and the operator-facing lead
// export. Every gated surface routes its unlock decisions through a
// gate.Controller; handlers never read the body column themselves.
package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"growthgate/internal/cache"
	"growthgate/internal/gate"
	"growthgate/internal/ledger"
	"growthgate/internal/markdown"
	"growthgate/internal/middleware"
	"growthgate/internal/models"
	"growthgate/internal/render"
	"growthgate/internal/storage"
	"growthgate/internal/store"
)

// LedgerFactory builds the unlock ledger view for one visitor device.
type LedgerFactory func(device string) ledger.Ledger

// Public groups the handlers for the public-facing HTML site. It checks
// the Valkey page cache before rendering, but only for views that are
// identical for every visitor: the listings and the locked gate view.
// Unlocked renders are per-device and never cached.
type Public struct {
	contents  *store.ContentStore
	leads     *store.LeadStore
	renderer  *render.Renderer
	pageCache *cache.PageCache
	storage   *storage.Client
	crm       gate.Forwarder
	ledgerFor LedgerFactory
	siteName  string
}

// NewPublic creates a new Public handler group. storageClient and crm
// may be nil when S3 or the CRM webhook are not configured.
func NewPublic(contents *store.ContentStore, leads *store.LeadStore, renderer *render.Renderer, pageCache *cache.PageCache, storageClient *storage.Client, crm gate.Forwarder, ledgerFor LedgerFactory, siteName string) *Public {
	return &Public{
		contents:  contents,
		leads:     leads,
		renderer:  renderer,
		pageCache: pageCache,
		storage:   storageClient,
		crm:       crm,
		ledgerFor: ledgerFor,
		siteName:  siteName,
	}
}

// kindFromSection maps a public URL section to its content kind.
func kindFromSection(section string) (models.ContentKind, bool) {
	switch section {
	case "blog":
		return models.ContentKindArticle, true
	case "recursos":
		return models.ContentKindResource, true
	case "casos-de-exito":
		return models.ContentKindCaseStudy, true
	}
	return "", false
}

// Homepage renders the site homepage: all three content listings.
func (p *Public) Homepage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached, ok := p.pageCache.Get(ctx, cache.HomeKey()); ok {
		writeHTML(w, http.StatusOK, cached)
		return
	}

	data := render.HomeData{Title: p.siteName}
	var err error
	if data.Resources, err = p.contents.ListPublished(ctx, models.ContentKindResource); err != nil {
		slog.Error("list resources failed", "error", err)
	}
	if data.Articles, err = p.contents.ListPublished(ctx, models.ContentKindArticle); err != nil {
		slog.Error("list articles failed", "error", err)
	}
	if data.Cases, err = p.contents.ListPublished(ctx, models.ContentKindCaseStudy); err != nil {
		slog.Error("list case studies failed", "error", err)
	}

	out, err := p.renderer.Render("home", data)
	if err != nil {
		slog.Error("render homepage failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, cache.HomeKey(), out)
	writeHTML(w, http.StatusOK, out)
}

// Listing renders a single-kind listing page for a section.
func (p *Public) Listing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	section := chi.URLParam(r, "section")
	kind, ok := kindFromSection(section)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if cached, ok := p.pageCache.Get(ctx, cache.ListingKey(section)); ok {
		writeHTML(w, http.StatusOK, cached)
		return
	}

	items, err := p.contents.ListPublished(ctx, kind)
	if err != nil {
		slog.Error("list content failed", "error", err, "kind", kind)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := render.HomeData{Title: p.siteName}
	switch kind {
	case models.ContentKindResource:
		data.Resources = items
	case models.ContentKindCaseStudy:
		data.Cases = items
	default:
		data.Articles = items
	}

	out, err := p.renderer.Render("home", data)
	if err != nil {
		slog.Error("render listing failed", "error", err, "kind", kind)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, cache.ListingKey(section), out)
	writeHTML(w, http.StatusOK, out)
}

// ContentPage renders the gate page for one content item. The view
// depends on the visitor's unlock state: the excerpt with a gate CTA,
// the lead form, a retry prompt when the body fetch failed after an
// unlock, or the full content.
func (p *Public) ContentPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, ok := p.findContent(w, r)
	if !ok {
		return
	}

	ctrl := p.controllerFor(r, summary)
	state, _ := ctrl.Restore(ctx)

	switch state {
	case gate.StateUnlocked:
		p.renderUnlocked(w, r, summary, ctrl)
	case gate.StateUnlocking:
		p.renderPage(w, http.StatusOK, p.contentData(summary, state))
	default:
		if r.URL.Query().Get("form") == "1" {
			state = ctrl.OpenForm()
			p.renderPage(w, http.StatusOK, p.contentData(summary, state))
			return
		}
		// The plain locked view is identical for every locked visitor,
		// so it is the only gate view that goes through the page cache.
		if cached, ok := p.pageCache.Get(ctx, cache.LockedKey(summary.Slug)); ok {
			writeHTML(w, http.StatusOK, cached)
			return
		}
		data := p.contentData(summary, state)
		out, err := p.renderer.Render("content", data)
		if err != nil {
			slog.Error("render content page failed", "error", err, "slug", summary.Slug)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		p.pageCache.Set(ctx, cache.LockedKey(summary.Slug), out)
		writeHTML(w, http.StatusOK, out)
	}
}

// SubmitLead handles the lead form post. On success the visitor is
// redirected back to the content page, which now restores as unlocked.
// On validation or write failure the form re-renders in place with the
// submitted values preserved and an inline error.
func (p *Public) SubmitLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, ok := p.findContent(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	email := r.PostFormValue("email")
	tag := r.PostFormValue("tag")

	ctrl := p.controllerFor(r, summary)
	state, _ := ctrl.Restore(ctx)
	if state == gate.StateLocked {
		ctrl.OpenForm()
	}

	state, err := ctrl.Submit(ctx, name, email, tag)
	if state == gate.StateFormOpen {
		// Validation or lead write failure: the form stays open with the
		// inline error and the visitor's input intact.
		data := p.contentData(summary, state)
		data.FormError = ctrl.FormError()
		data.FormName = name
		data.FormEmail = email
		data.FormTag = tag
		p.renderPage(w, http.StatusUnprocessableEntity, data)
		return
	}
	if err != nil {
		// Post-unlock body fetch failure. Access is granted; the page
		// shows the retry prompt after the redirect.
		slog.Warn("unlock completed with fetch failure", "error", err, "slug", summary.Slug)
	}

	http.Redirect(w, r, contentPath(summary), http.StatusSeeOther)
}

// RetryFetch re-attempts the gated body fetch for a visitor whose
// unlock succeeded but whose content failed to load.
func (p *Public) RetryFetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, ok := p.findContent(w, r)
	if !ok {
		return
	}

	ctrl := p.controllerFor(r, summary)
	state, _ := ctrl.Restore(ctx)
	if state == gate.StateUnlocking {
		state, _ = ctrl.Retry(ctx)
	}

	if state == gate.StateUnlocked {
		p.renderUnlocked(w, r, summary, ctrl)
		return
	}
	p.renderPage(w, http.StatusOK, p.contentData(summary, state))
}

// findContent resolves the section and slug route params to a published
// content summary, writing a 404 on any miss. A slug reached through
// the wrong section is a miss too.
func (p *Public) findContent(w http.ResponseWriter, r *http.Request) (*models.ContentSummary, bool) {
	kind, ok := kindFromSection(chi.URLParam(r, "section"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	slug := chi.URLParam(r, "slug")
	summary, err := p.contents.FindSummaryBySlug(r.Context(), slug)
	if err != nil {
		slog.Error("find content by slug failed", "error", err, "slug", slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if summary == nil || summary.Kind != kind {
		http.NotFound(w, r)
		return nil, false
	}
	return summary, true
}

// controllerFor builds the gate controller for this request's device
// and content item.
func (p *Public) controllerFor(r *http.Request, summary *models.ContentSummary) *gate.Controller {
	device := middleware.DeviceFromContext(r.Context())
	return gate.New(summary.ID, summary.Slug, summary.Title, summary.Kind, gate.Deps{
		Ledger: p.ledgerFor(device),
		Leads:  p.leads,
		Body:   p.contents,
		CRM:    p.crm,
	})
}

// contentData assembles the template payload for a gate page. The body
// is never part of it; renderUnlocked adds it on the unlocked path.
func (p *Public) contentData(summary *models.ContentSummary, state gate.State) render.ContentData {
	return render.ContentData{
		Title:       summary.Title,
		Slug:        summary.Slug,
		Kind:        summary.Kind,
		State:       string(state),
		ExcerptHTML: p.toHTML(summary.Excerpt, summary.Slug),
	}
}

// renderUnlocked renders the full content view: body, and for items
// with a download asset, a fresh presigned link.
func (p *Public) renderUnlocked(w http.ResponseWriter, r *http.Request, summary *models.ContentSummary, ctrl *gate.Controller) {
	ctx := r.Context()

	data := p.contentData(summary, gate.StateUnlocked)
	data.BodyHTML = p.toHTML(ctrl.Body(), summary.Slug)

	if summary.HasDownload && p.storage != nil {
		key, err := p.contents.AssetKey(ctx, summary.ID)
		if err != nil {
			slog.Error("asset key lookup failed", "error", err, "slug", summary.Slug)
		} else if key != "" {
			url, err := p.storage.PresignDownload(ctx, key)
			if err != nil {
				slog.Error("presign download failed", "error", err, "slug", summary.Slug)
			} else {
				data.DownloadURL = url
			}
		}
	}

	p.renderPage(w, http.StatusOK, data)
}

// renderPage renders a gate page variant without touching the cache.
func (p *Public) renderPage(w http.ResponseWriter, status int, data render.ContentData) {
	out, err := p.renderer.Render("content", data)
	if err != nil {
		slog.Error("render content page failed", "error", err, "slug", data.Slug)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, out)
}

func (p *Public) toHTML(source, slug string) template.HTML {
	out, err := markdown.ToHTML(source)
	if err != nil {
		slog.Error("markdown render failed", "error", err, "slug", slug)
		return ""
	}
	return template.HTML(out)
}

func contentPath(summary *models.ContentSummary) string {
	return "/" + summary.Kind.PathSegment() + "/" + summary.Slug
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
