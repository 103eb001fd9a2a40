// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"growthgate/internal/models"
)

// LeadStore persists captured leads. Leads are written exactly once per
// successful form submission; there is no visitor-facing update or
// delete path.
type LeadStore struct {
	db *sql.DB
}

// NewLeadStore creates a new LeadStore with the given database connection.
func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

// Record inserts a lead as a single atomic write and returns the
// generated ID. The created_at timestamp is server-assigned.
func (s *LeadStore) Record(ctx context.Context, lead models.Lead) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO leads (name, email, tag, source_slug, source_title)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, lead.Name, lead.Email, lead.Tag, lead.SourceSlug, lead.SourceTitle).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record lead: %w", err)
	}
	return id, nil
}

// ListRecent returns the most recent leads, newest first, up to limit.
// Operator-facing export; never rendered on a public page.
func (s *LeadStore) ListRecent(ctx context.Context, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, tag, source_slug, source_title, created_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Email, &l.Tag, &l.SourceSlug, &l.SourceTitle, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// CountBySource returns how many leads each content slug has produced.
func (s *LeadStore) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_slug, COUNT(*) FROM leads GROUP BY source_slug
	`)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var slug string
		var n int
		if err := rows.Scan(&slug, &n); err != nil {
			return nil, fmt.Errorf("scan lead count: %w", err)
		}
		counts[slug] = n
	}
	return counts, rows.Err()
}
