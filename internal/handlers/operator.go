// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"growthgate/internal/cache"
	"growthgate/internal/models"
	"growthgate/internal/slug"
	"growthgate/internal/storage"
	"growthgate/internal/store"
)

// maxAssetUpload caps gated asset uploads (guide PDFs, checklists).
const maxAssetUpload = 32 << 20 // 32 MiB

// Operator groups internal endpoints for the team running the site:
// lead export, per-content lead counts, content management, and gated
// asset uploads. These routes are meant to sit behind network-level
// access control, never on the public edge.
type Operator struct {
	leads     *store.LeadStore
	contents  *store.ContentStore
	pageCache *cache.PageCache
	storage   *storage.Client
}

// NewOperator creates a new Operator handler group. storageClient may
// be nil; the asset endpoints then report storage as unconfigured.
func NewOperator(leads *store.LeadStore, contents *store.ContentStore, pageCache *cache.PageCache, storageClient *storage.Client) *Operator {
	return &Operator{leads: leads, contents: contents, pageCache: pageCache, storage: storageClient}
}

// ListLeads returns the most recent leads as JSON, newest first.
// GET /internal/leads?limit=
func (o *Operator) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	leads, err := o.leads.ListRecent(r.Context(), limit)
	if err != nil {
		slog.Error("list leads failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"leads": leads,
		"count": len(leads),
	})
}

// LeadStats returns how many leads each content slug has produced.
// GET /internal/leads/stats
func (o *Operator) LeadStats(w http.ResponseWriter, r *http.Request) {
	counts, err := o.leads.CountBySource(r.Context())
	if err != nil {
		slog.Error("count leads failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"by_source": counts})
}

// contentRequest is the JSON body for content create and update.
type contentRequest struct {
	Kind      models.ContentKind `json:"kind"`
	Title     string             `json:"title"`
	Slug      string             `json:"slug"`
	Excerpt   string             `json:"excerpt"`
	Body      string             `json:"body"`
	AssetKey  string             `json:"asset_key"`
	Published *bool              `json:"published"`
}

// CreateContent inserts a new content item. When no slug is given it is
// derived from the title. POST /internal/content
func (o *Operator) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Kind.Valid() {
		writeJSONError(w, http.StatusBadRequest, "unknown kind")
		return
	}
	if req.Title == "" {
		writeJSONError(w, http.StatusBadRequest, "title is required")
		return
	}

	s := req.Slug
	if s == "" {
		s = slug.Generate(req.Title)
	}
	published := true
	if req.Published != nil {
		published = *req.Published
	}

	c := &models.Content{
		Kind:      req.Kind,
		Title:     req.Title,
		Slug:      s,
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		Published: published,
	}
	if req.AssetKey != "" {
		c.AssetKey = &req.AssetKey
	}

	created, err := o.contents.Create(r.Context(), c)
	if err != nil {
		slog.Error("create content failed", "error", err, "slug", s)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	o.invalidatePages(r, created.Kind, created.Slug)
	writeJSON(w, http.StatusCreated, created.Summary())
}

// UpdateContent modifies an existing content item.
// PUT /internal/content/{id}
func (o *Operator) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Kind.Valid() || req.Title == "" {
		writeJSONError(w, http.StatusBadRequest, "kind and title are required")
		return
	}

	s := req.Slug
	if s == "" {
		s = slug.Generate(req.Title)
	}
	published := true
	if req.Published != nil {
		published = *req.Published
	}

	c := &models.Content{
		ID:        id,
		Kind:      req.Kind,
		Title:     req.Title,
		Slug:      s,
		Excerpt:   req.Excerpt,
		Body:      req.Body,
		Published: published,
	}
	if req.AssetKey != "" {
		c.AssetKey = &req.AssetKey
	}

	if err := o.contents.Update(r.Context(), c); err != nil {
		slog.Error("update content failed", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	o.invalidatePages(r, c.Kind, c.Slug)
	writeJSON(w, http.StatusOK, c.Summary())
}

// DeleteContent removes a content item. DELETE /internal/content/{id}
func (o *Operator) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := o.contents.Delete(r.Context(), id); err != nil {
		slog.Error("delete content failed", "error", err, "id", id)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	o.pageCache.Invalidate(r.Context(), cache.HomeKey())
	w.WriteHeader(http.StatusNoContent)
}

// UploadAsset stores a gated download asset in the private bucket and
// returns the object key to reference as content asset_key. The file
// arrives as the multipart field "file"; an explicit "key" form value
// overrides the derived one. POST /internal/assets
func (o *Operator) UploadAsset(w http.ResponseWriter, r *http.Request) {
	if o.storage == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAssetUpload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	key := r.FormValue("key")
	if key == "" {
		key = assetKeyFor(header.Filename)
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := o.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		slog.Error("asset upload failed", "error", err, "key", key)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("asset uploaded", "key", key, "size", header.Size)
	writeJSON(w, http.StatusCreated, map[string]string{
		"key":    key,
		"bucket": o.storage.Bucket(),
	})
}

// DeleteAsset removes a gated asset from the private bucket. Content
// rows still referencing the key keep their download button but the
// presigned link will 404; operators clear asset_key first.
// DELETE /internal/assets?key=
func (o *Operator) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if o.storage == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSONError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := o.storage.Delete(r.Context(), key); err != nil {
		slog.Error("asset delete failed", "error", err, "key", key)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// assetKeyFor derives a stable object key from an uploaded filename:
// the slugged base name under assets/, extension preserved.
func assetKeyFor(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return "assets/" + slug.Generate(base) + ext
}

// invalidatePages drops every cached public view a content change can
// affect: the homepage, the kind listing, and the locked gate view.
func (o *Operator) invalidatePages(r *http.Request, kind models.ContentKind, s string) {
	ctx := r.Context()
	o.pageCache.Invalidate(ctx, cache.HomeKey())
	o.pageCache.Invalidate(ctx, cache.ListingKey(kind.PathSegment()))
	o.pageCache.Invalidate(ctx, cache.LockedKey(s))
}
