// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind distinguishes the gated content families served by the site.
// They all live in the unified content table.
type ContentKind string

const (
	ContentKindArticle   ContentKind = "article"
	ContentKindResource  ContentKind = "resource"
	ContentKindCaseStudy ContentKind = "case_study"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentKindArticle, ContentKindResource, ContentKindCaseStudy:
		return true
	}
	return false
}

// PathSegment returns the URL path segment the public site serves this
// kind under.
func (k ContentKind) PathSegment() string {
	switch k {
	case ContentKindResource:
		return "recursos"
	case ContentKindCaseStudy:
		return "casos-de-exito"
	default:
		return "blog"
	}
}

// Content is the full representation of a content item, including the
// gated body. Only the unlock path in the gate package may hand this
// body to a visitor; everything public-facing works with ContentSummary.
type Content struct {
	ID        uuid.UUID   `json:"id"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Excerpt   string      `json:"excerpt"`
	Body      string      `json:"body"`
	AssetKey  *string     `json:"asset_key,omitempty"` // private-bucket object key for downloadable resources
	Published bool        `json:"published"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Summary returns the public projection of the content item.
func (c *Content) Summary() ContentSummary {
	return ContentSummary{
		ID:          c.ID,
		Kind:        c.Kind,
		Title:       c.Title,
		Slug:        c.Slug,
		Excerpt:     c.Excerpt,
		HasDownload: c.AssetKey != nil && *c.AssetKey != "",
		Published:   c.Published,
		CreatedAt:   c.CreatedAt,
	}
}

// ContentSummary is the listing shape shipped to public contexts.
// It deliberately has no body field at all, so a serialized summary can
// never leak gated content.
type ContentSummary struct {
	ID          uuid.UUID   `json:"id"`
	Kind        ContentKind `json:"kind"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Excerpt     string      `json:"excerpt"`
	HasDownload bool        `json:"has_download"`
	Published   bool        `json:"published"`
	CreatedAt   time.Time   `json:"created_at"`
}
