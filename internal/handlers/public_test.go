// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"growthgate/internal/models"
)

const gatedBody = "Este es el contenido completo que nunca sale antes del desbloqueo."

func contentPageReq(slug string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/recursos/"+slug, nil)
	return withChiURLParams(r, map[string]string{"section": "recursos", "slug": slug})
}

func submitReq(slug string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/recursos/"+slug+"/unlock", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return withChiURLParams(r, map[string]string{"section": "recursos", "slug": slug})
}

func TestContentPageLockedHidesBody(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)

	rec := doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), testDevice(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Resumen público") {
		t.Error("locked page missing excerpt")
	}
	if strings.Contains(html, gatedBody) {
		t.Error("locked page leaked gated body")
	}
	if !strings.Contains(html, "Desbloquear") {
		t.Error("locked page missing gate call to action")
	}
}

func TestSubmitLeadUnlocksContent(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)
	device := testDevice(t)

	rec := doAs(env.Public.SubmitLead, submitReq("cac-sostenible", url.Values{
		"name":  {"María García"},
		"email": {"maria@empresa.com"},
		"tag":   {"reducir CAC"},
	}), device)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("submit status: got %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/recursos/cac-sostenible" {
		t.Errorf("redirect location: got %q", loc)
	}

	// The lead was stored.
	leads, err := env.Leads.ListRecent(t.Context(), 10)
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("leads stored: got %d, want 1", len(leads))
	}
	if leads[0].Email != "maria@empresa.com" || leads[0].SourceSlug != "cac-sostenible" {
		t.Errorf("lead fields: %+v", leads[0])
	}

	// The same device now sees the full content.
	rec = doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), device)
	if rec.Code != http.StatusOK {
		t.Fatalf("page status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "contenido completo que nunca sale") {
		t.Error("unlocked page missing gated body")
	}
}

func TestUnlockDoesNotLeakToOtherDevices(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)

	unlocked := testDevice(t)
	doAs(env.Public.SubmitLead, submitReq("cac-sostenible", url.Values{
		"name":  {"María García"},
		"email": {"maria@empresa.com"},
	}), unlocked)

	other := testDevice(t)
	rec := doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), other)
	if strings.Contains(rec.Body.String(), gatedBody) {
		t.Error("another device saw the gated body")
	}
}

func TestSubmitLeadValidationKeepsFormOpen(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)
	device := testDevice(t)

	rec := doAs(env.Public.SubmitLead, submitReq("cac-sostenible", url.Values{
		"name":  {"   "},
		"email": {"maria@empresa.com"},
	}), device)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d, want 422", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "Nombre y email son obligatorios") {
		t.Error("missing validation message")
	}
	if !strings.Contains(html, "maria@empresa.com") {
		t.Error("form did not preserve the email input")
	}
	if strings.Contains(html, gatedBody) {
		t.Error("validation failure leaked gated body")
	}

	// Nothing was stored and nothing was unlocked.
	leads, err := env.Leads.ListRecent(t.Context(), 10)
	if err != nil {
		t.Fatalf("list leads: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("leads stored on validation failure: %d", len(leads))
	}
	rec = doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), device)
	if strings.Contains(rec.Body.String(), gatedBody) {
		t.Error("device unlocked despite validation failure")
	}
}

func TestContentPageWrongSectionIs404(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindArticle, "meseta-crecimiento", gatedBody)

	// The article exists, but not under /recursos.
	rec := doAs(env.Public.ContentPage, contentPageReq("meseta-crecimiento"), testDevice(t))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestContentPageUnknownSlugIs404(t *testing.T) {
	env := newTestEnv(t)

	rec := doAs(env.Public.ContentPage, contentPageReq("no-existe"), testDevice(t))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHomepageListsContentWithoutBody(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)
	seedContent(t, env, models.ContentKindArticle, "meseta-crecimiento", gatedBody)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := doAs(env.Public.Homepage, r, testDevice(t))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	html := rec.Body.String()
	if !strings.Contains(html, "/recursos/cac-sostenible") {
		t.Error("homepage missing resource link")
	}
	if !strings.Contains(html, "/blog/meseta-crecimiento") {
		t.Error("homepage missing article link")
	}
	if strings.Contains(html, gatedBody) {
		t.Error("homepage leaked gated body")
	}
}

func TestLockedPageIsCachedPerSlugNotPerDevice(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)

	// First locked render populates the cache.
	doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), testDevice(t))

	if _, ok := env.PageCache.Get(t.Context(), "locked:cac-sostenible"); !ok {
		t.Error("locked view not cached")
	}

	// An unlocked device must not be served the cached locked view.
	device := testDevice(t)
	doAs(env.Public.SubmitLead, submitReq("cac-sostenible", url.Values{
		"name":  {"María García"},
		"email": {"maria@empresa.com"},
	}), device)

	rec := doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), device)
	if !strings.Contains(rec.Body.String(), "contenido completo que nunca sale") {
		t.Error("unlocked device served the cached locked view")
	}
}

func TestUnlockedRenderIsNeverCached(t *testing.T) {
	env := newTestEnv(t)
	seedContent(t, env, models.ContentKindResource, "cac-sostenible", gatedBody)
	device := testDevice(t)

	doAs(env.Public.SubmitLead, submitReq("cac-sostenible", url.Values{
		"name":  {"María García"},
		"email": {"maria@empresa.com"},
	}), device)

	// Render the unlocked page. It must not create any page-cache entry.
	rec := doAs(env.Public.ContentPage, contentPageReq("cac-sostenible"), device)
	if !strings.Contains(rec.Body.String(), "contenido completo que nunca sale") {
		t.Fatal("unlocked page missing gated body")
	}

	if _, ok := env.PageCache.Get(t.Context(), "locked:cac-sostenible"); ok {
		t.Error("unlocked render wrote the locked-view cache entry")
	}

	// No cached page anywhere may carry the gated body.
	keys, err := env.Valkey.Keys(t.Context(), "page:*").Result()
	if err != nil {
		t.Fatalf("scan page keys: %v", err)
	}
	for _, key := range keys {
		val, err := env.Valkey.Get(t.Context(), key).Result()
		if err != nil {
			t.Fatalf("get %q: %v", key, err)
		}
		if strings.Contains(val, gatedBody) {
			t.Errorf("cached page %q contains the gated body", key)
		}
	}
}
