// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead is a visitor-submitted contact record captured by a content gate.
// Name and Email are required; Tag is the visitor's free-text interest.
// SourceSlug and SourceTitle identify the content item that produced it.
type Lead struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Tag         string    `json:"tag,omitempty"`
	SourceSlug  string    `json:"source_slug"`
	SourceTitle string    `json:"source_title"`
	CreatedAt   time.Time `json:"created_at"`
}

// FirstLast splits the lead's name on the first space, for CRM payloads
// that want separate first/last fields. A single-word name goes entirely
// into first.
func (l *Lead) FirstLast() (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(l.Name), " ")
	return first, strings.TrimSpace(last)
}
