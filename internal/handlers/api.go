// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"growthgate/internal/gate"
	"growthgate/internal/middleware"
	"growthgate/internal/models"
	"growthgate/internal/storage"
	"growthgate/internal/store"
)

// API groups the JSON endpoints consumed by script-driven frontends.
// Content reads return summaries only; the gated body travels over a
// single endpoint that checks the unlock ledger on every call.
type API struct {
	contents  *store.ContentStore
	leads     *store.LeadStore
	storage   *storage.Client
	crm       gate.Forwarder
	ledgerFor LedgerFactory
}

// NewAPI creates a new API handler group. storageClient and crm may be nil.
func NewAPI(contents *store.ContentStore, leads *store.LeadStore, storageClient *storage.Client, crm gate.Forwarder, ledgerFor LedgerFactory) *API {
	return &API{
		contents:  contents,
		leads:     leads,
		storage:   storageClient,
		crm:       crm,
		ledgerFor: ledgerFor,
	}
}

// leadRequest is the JSON body of a gate submission.
type leadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Tag   string `json:"tag"`
}

// gateResponse reports the gate state after an operation. Body and
// DownloadURL are populated only in the unlocked state.
type gateResponse struct {
	State       string `json:"state"`
	Body        string `json:"body,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ListContent returns published content summaries, optionally filtered
// by ?kind=. GET /api/content
func (a *API) ListContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kinds := []models.ContentKind{
		models.ContentKindResource,
		models.ContentKindArticle,
		models.ContentKindCaseStudy,
	}
	if q := r.URL.Query().Get("kind"); q != "" {
		kind := models.ContentKind(q)
		if !kind.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		kinds = []models.ContentKind{kind}
	}

	items := []models.ContentSummary{}
	for _, kind := range kinds {
		list, err := a.contents.ListPublished(ctx, kind)
		if err != nil {
			slog.Error("list content failed", "error", err, "kind", kind)
			writeJSONError(w, http.StatusInternalServerError, "internal error")
			return
		}
		items = append(items, list...)
	}

	writeJSON(w, http.StatusOK, map[string]any{"content": items})
}

// GetContent returns the public summary of one content item.
// GET /api/content/{slug}
func (a *API) GetContent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	summary, err := a.contents.FindSummaryBySlug(r.Context(), slug)
	if err != nil {
		slog.Error("find content by slug failed", "error", err, "slug", slug)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if summary == nil {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GateState reports the current gate state for this device without
// changing anything. GET /api/gate/{slug}
func (a *API) GateState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, ctrl, ok := a.gateFor(w, r)
	if !ok {
		return
	}

	state, err := ctrl.Restore(ctx)
	resp := gateResponse{State: string(state)}
	if state == gate.StateUnlocked {
		resp.Body = ctrl.Body()
		resp.DownloadURL = a.downloadURL(r, summary)
	}
	if err != nil {
		resp.Error = "content fetch failed"
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitLead runs the unlock transition for a JSON client.
// POST /api/gate/{slug}/lead
func (a *API) SubmitLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, ctrl, ok := a.gateFor(w, r)
	if !ok {
		return
	}

	var req leadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	state, _ := ctrl.Restore(ctx)
	if state == gate.StateLocked {
		ctrl.OpenForm()
	}

	state, err := ctrl.Submit(ctx, req.Name, req.Email, req.Tag)
	if err != nil {
		var vErr *gate.ValidationError
		var wErr *gate.WriteError
		switch {
		case errors.As(err, &vErr):
			writeJSON(w, http.StatusUnprocessableEntity, gateResponse{
				State: string(state),
				Error: ctrl.FormError(),
			})
			return
		case errors.As(err, &wErr):
			writeJSON(w, http.StatusServiceUnavailable, gateResponse{
				State: string(state),
				Error: ctrl.FormError(),
			})
			return
		}
		// Fetch failure after a granted unlock: report the state as-is,
		// the client retries via GET /api/gate/{slug}/body.
		writeJSON(w, http.StatusOK, gateResponse{
			State: string(state),
			Error: "content fetch failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, gateResponse{
		State:       string(state),
		Body:        ctrl.Body(),
		DownloadURL: a.downloadURL(r, summary),
	})
}

// FetchBody returns the gated body for an unlocked device, or 403 for a
// locked one. GET /api/gate/{slug}/body
func (a *API) FetchBody(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, ctrl, ok := a.gateFor(w, r)
	if !ok {
		return
	}

	state, err := ctrl.Restore(ctx)
	switch state {
	case gate.StateUnlocked:
		writeJSON(w, http.StatusOK, gateResponse{
			State:       string(state),
			Body:        ctrl.Body(),
			DownloadURL: a.downloadURL(r, summary),
		})
	case gate.StateUnlocking:
		slog.Warn("gated body fetch failed for unlocked device", "error", err, "slug", summary.Slug)
		writeJSON(w, http.StatusBadGateway, gateResponse{
			State: string(state),
			Error: "content fetch failed",
		})
	default:
		writeJSON(w, http.StatusForbidden, gateResponse{
			State: string(state),
			Error: "locked",
		})
	}
}

// gateFor resolves the slug route param and builds the request's gate
// controller. Writes the error response itself on a miss.
func (a *API) gateFor(w http.ResponseWriter, r *http.Request) (*models.ContentSummary, *gate.Controller, bool) {
	slug := chi.URLParam(r, "slug")
	summary, err := a.contents.FindSummaryBySlug(r.Context(), slug)
	if err != nil {
		slog.Error("find content by slug failed", "error", err, "slug", slug)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return nil, nil, false
	}
	if summary == nil {
		writeJSONError(w, http.StatusNotFound, "not found")
		return nil, nil, false
	}

	device := middleware.DeviceFromContext(r.Context())
	ctrl := gate.New(summary.ID, summary.Slug, summary.Title, summary.Kind, gate.Deps{
		Ledger: a.ledgerFor(device),
		Leads:  a.leads,
		Body:   a.contents,
		CRM:    a.crm,
	})
	return summary, ctrl, true
}

// downloadURL issues a presigned link for the item's asset, or empty
// when the item has none or storage is not configured.
func (a *API) downloadURL(r *http.Request, summary *models.ContentSummary) string {
	if !summary.HasDownload || a.storage == nil {
		return ""
	}
	key, err := a.contents.AssetKey(r.Context(), summary.ID)
	if err != nil || key == "" {
		if err != nil {
			slog.Error("asset key lookup failed", "error", err, "slug", summary.Slug)
		}
		return ""
	}
	url, err := a.storage.PresignDownload(r.Context(), key)
	if err != nil {
		slog.Error("presign download failed", "error", err, "slug", summary.Slug)
		return ""
	}
	return url
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
