// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes and middleware chains: the
// public HTML site, the JSON API, and the operator endpoints. Every
// route that touches the unlock ledger runs behind the device cookie
// middleware; lead submissions additionally pass a rate limiter.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"growthgate/internal/handlers"
	"growthgate/internal/middleware"
)

// New creates and returns the configured Chi router.
func New(public *handlers.Public, api *handlers.API, operator *handlers.Operator, leadLimiter *middleware.RateLimiter, secureCookies bool) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.DeviceID(secureCookies))

	// Health check and metrics.
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/content", api.ListContent)
		r.Get("/content/{slug}", api.GetContent)
		r.Route("/gate/{slug}", func(r chi.Router) {
			r.Get("/", api.GateState)
			r.Get("/body", api.FetchBody)
			r.With(leadLimiter.Middleware).Post("/lead", api.SubmitLead)
		})
	})

	// Operator endpoints. Deploy behind network-level access control.
	r.Route("/internal", func(r chi.Router) {
		r.Get("/leads", operator.ListLeads)
		r.Get("/leads/stats", operator.LeadStats)
		r.Post("/content", operator.CreateContent)
		r.Put("/content/{id}", operator.UpdateContent)
		r.Delete("/content/{id}", operator.DeleteContent)
		r.Post("/assets", operator.UploadAsset)
		r.Delete("/assets", operator.DeleteAsset)
	})

	// Public HTML site.
	r.Get("/", public.Homepage)
	r.Get("/{section}", public.Listing)
	r.Route("/{section}/{slug}", func(r chi.Router) {
		r.Get("/", public.ContentPage)
		r.With(leadLimiter.Middleware).Post("/unlock", public.SubmitLead)
		r.Post("/retry", public.RetryFetch)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
