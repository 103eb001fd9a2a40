// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package crm forwards captured leads to an external CRM webhook on a
// best-effort basis. Forwards run detached from the caller: they are
// never awaited, never retried, and their failure is observable only to
// operators (log + metric). CRM availability must never gate content
// access.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"growthgate/internal/metrics"
	"growthgate/internal/models"
)

// forwardTimeout bounds a single webhook attempt.
const forwardTimeout = 10 * time.Second

// payload is the denormalized shape the CRM webhook expects.
type payload struct {
	FirstName  string            `json:"firstName"`
	LastName   string            `json:"lastName"`
	Email      string            `json:"email"`
	Tags       []string          `json:"tags"`
	Source     string            `json:"source"`
	CustomData map[string]string `json:"customData"`
}

// Forwarder posts lead payloads to a fixed webhook URL. The zero-value
// Forwarder (or one built with an empty URL) is disabled: Forward
// becomes a no-op.
type Forwarder struct {
	url      string
	siteName string
	client   *http.Client

	// wg lets tests and shutdown wait for in-flight forwards. Callers
	// on the unlock path never wait on it.
	wg sync.WaitGroup
}

// New creates a Forwarder posting to url. siteName labels the payload
// source field ("<siteName> - <content title>"). A nil httpClient gets
// a default with a sane timeout. An empty url disables forwarding.
func New(url, siteName string, httpClient *http.Client) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: forwardTimeout}
	}
	return &Forwarder{url: url, siteName: siteName, client: httpClient}
}

// Enabled reports whether a webhook URL is configured.
func (f *Forwarder) Enabled() bool {
	return f != nil && f.url != ""
}

// Forward sends the lead to the CRM webhook in a detached goroutine and
// returns immediately. The outcome has zero effect on the caller's
// control flow; failures are swallowed after a log line and a metric
// bump.
func (f *Forwarder) Forward(lead models.Lead) {
	if !f.Enabled() {
		return
	}

	first, last := lead.FirstLast()
	p := payload{
		FirstName: first,
		LastName:  last,
		Email:     lead.Email,
		Tags:      []string{"lead-magnet", lead.SourceSlug},
		Source:    f.siteName + " - " + lead.SourceTitle,
		CustomData: map[string]string{
			"sourceSlug":  lead.SourceSlug,
			"sourceTitle": lead.SourceTitle,
			"tag":         lead.Tag,
		},
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		if err := f.post(p); err != nil {
			metrics.CRMForwardFailures.Inc()
			slog.Warn("crm forward failed", "error", err, "slug", lead.SourceSlug)
		}
	}()
}

// Wait blocks until all in-flight forwards finish. Used by tests and
// graceful shutdown.
func (f *Forwarder) Wait() {
	f.wg.Wait()
}

// post performs one webhook attempt.
func (f *Forwarder) post(p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), forwardTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &statusError{code: resp.StatusCode}
	}
	return nil
}

// statusError reports a non-2xx webhook response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("webhook returned %d", e.code)
}
