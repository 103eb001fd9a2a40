// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package gate implements the access control around gated content: a
// visitor sees a public excerpt, submits a lead form, and only then is
// the gated body fetched and revealed. One Controller handles one
// (visitor device, content item) pair; the content store, lead store,
// unlock ledger, and CRM forwarder are injected so every gated surface
// on the site shares this single state machine.
//
// The ordering contract on a successful submit is strict: the lead
// write completes first, then the ledger is set, then the body fetch
// begins. The CRM forward detaches after the lead write and is ordered
// against nothing.
package gate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"growthgate/internal/ledger"
	"growthgate/internal/metrics"
	"growthgate/internal/models"
)

// State is the visitor-facing rendering state of one gate.
type State string

const (
	// StateRestoring is the initial state: the ledger has not been
	// consulted yet.
	StateRestoring State = "restoring"
	// StateLocked shows the excerpt and the gate CTA.
	StateLocked State = "locked"
	// StateFormOpen shows the lead form.
	StateFormOpen State = "form_open"
	// StateSubmitting disables the form while the lead write runs.
	StateSubmitting State = "submitting"
	// StateUnlocking fetches the gated body. Access is already granted;
	// a fetch failure keeps the gate here, never back in StateLocked.
	StateUnlocking State = "unlocking"
	// StateUnlocked renders the full body. Terminal; the controller
	// performs no further writes.
	StateUnlocked State = "unlocked"
)

// LeadRecorder persists a lead. The write is atomic: either it returns
// an ID or nothing was stored.
type LeadRecorder interface {
	Record(ctx context.Context, lead models.Lead) (uuid.UUID, error)
}

// BodyFetcher returns the gated body for a content item. This is the
// only path in the system allowed to hand body text to a visitor
// context, and the Controller calls it only after an unlock decision.
type BodyFetcher interface {
	FetchBody(ctx context.Context, id uuid.UUID) (string, error)
}

// Forwarder pushes a lead to an external CRM, best-effort. May be nil.
type Forwarder interface {
	Forward(lead models.Lead)
}

// Deps are the injected collaborators of a Controller.
type Deps struct {
	Ledger ledger.Ledger
	Leads  LeadRecorder
	Body   BodyFetcher
	CRM    Forwarder // optional; nil disables forwarding
}

// Controller mediates the unlock transition for one content item and
// one visitor device. It is not safe for concurrent use; two tabs map
// to two controllers that at worst record two leads, which is accepted.
type Controller struct {
	contentID uuid.UUID
	slug      string
	title     string
	kind      models.ContentKind
	deps      Deps

	state   State
	body    string
	formErr string
}

// New creates a Controller in StateRestoring for the given content item.
func New(contentID uuid.UUID, slug, title string, kind models.ContentKind, deps Deps) *Controller {
	return &Controller{
		contentID: contentID,
		slug:      slug,
		title:     title,
		kind:      kind,
		deps:      deps,
		state:     StateRestoring,
	}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Body returns the gated body. Empty until StateUnlocked.
func (c *Controller) Body() string { return c.body }

// FormError returns the inline error shown with the lead form, if any.
func (c *Controller) FormError() string { return c.formErr }

// Restore consults the ledger and settles the initial state: Locked for
// a fresh device, or straight through Unlocking to Unlocked for a
// device that already holds the unlock. A ledger read failure is
// treated as "not unlocked" — the visitor can always earn access again
// through the form.
func (c *Controller) Restore(ctx context.Context) (State, error) {
	if c.state != StateRestoring {
		return c.state, nil
	}

	unlocked, err := c.deps.Ledger.Get(ctx, c.slug)
	if err != nil {
		slog.Warn("unlock ledger read failed", "error", err, "slug", c.slug)
	}
	if !unlocked {
		c.state = StateLocked
		return c.state, nil
	}

	c.state = StateUnlocking
	return c.fetchBody(ctx)
}

// OpenForm transitions Locked → FormOpen. A no-op in any other state.
func (c *Controller) OpenForm() State {
	if c.state == StateLocked {
		c.state = StateFormOpen
		c.formErr = ""
	}
	return c.state
}

// Cancel closes the form without submitting, FormOpen → Locked.
func (c *Controller) Cancel() State {
	if c.state == StateFormOpen {
		c.state = StateLocked
		c.formErr = ""
	}
	return c.state
}

// Submit runs the unlock transition: validate, write the lead, set the
// ledger, detach the CRM forward, fetch the body. On validation or
// write failure the form stays open with an error and the visitor may
// retry; nothing was unlocked. Once the lead write has succeeded the
// unlock is granted regardless of anything that happens afterwards.
func (c *Controller) Submit(ctx context.Context, name, email, tag string) (State, error) {
	if c.state != StateFormOpen {
		return c.state, nil
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	tag = strings.TrimSpace(tag)

	// Local validation — never reaches the store.
	if name == "" {
		c.formErr = "Nombre y email son obligatorios"
		return c.state, &ValidationError{Field: "name"}
	}
	if email == "" {
		c.formErr = "Nombre y email son obligatorios"
		return c.state, &ValidationError{Field: "email"}
	}

	c.state = StateSubmitting
	c.formErr = ""

	lead := models.Lead{
		Name:        name,
		Email:       email,
		Tag:         tag,
		SourceSlug:  c.slug,
		SourceTitle: c.title,
	}

	if _, err := c.deps.Leads.Record(ctx, lead); err != nil {
		metrics.LeadWriteFailures.Inc()
		slog.Error("lead write failed", "error", err, "slug", c.slug)
		c.state = StateFormOpen
		c.formErr = "Hubo un problema. Por favor, inténtalo de nuevo."
		return c.state, &WriteError{Err: err}
	}
	metrics.LeadsRecorded.WithLabelValues(string(c.kind)).Inc()

	// The lead is stored: the unlock is granted from here on. The
	// ledger set is unconditional and a failure only costs the visitor
	// a repeat form on their next visit.
	if err := c.deps.Ledger.Set(ctx, c.slug); err != nil {
		slog.Warn("unlock ledger write failed", "error", err, "slug", c.slug)
	}

	// Detached, unordered, outcome ignored.
	if c.deps.CRM != nil {
		c.deps.CRM.Forward(lead)
	}

	c.state = StateUnlocking
	return c.fetchBody(ctx)
}

// Retry re-attempts the gated body fetch after a post-unlock fetch
// failure. Valid only in StateUnlocking.
func (c *Controller) Retry(ctx context.Context) (State, error) {
	if c.state != StateUnlocking {
		return c.state, nil
	}
	return c.fetchBody(ctx)
}

// fetchBody loads the gated body and completes the unlock. On failure
// the state stays Unlocking: access was already granted and must not
// fall back to the locked view.
func (c *Controller) fetchBody(ctx context.Context) (State, error) {
	body, err := c.deps.Body.FetchBody(ctx, c.contentID)
	if err != nil {
		metrics.BodyFetchFailures.Inc()
		slog.Error("gated body fetch failed", "error", err, "slug", c.slug)
		return c.state, &FetchError{Err: err}
	}

	c.body = body
	c.state = StateUnlocked
	metrics.UnlocksGranted.Inc()
	return c.state, nil
}
