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

// ContentStore handles all content-related database operations. Public
// reads go through summary projections whose select lists omit the body
// column entirely; FetchBody is the single query that returns it.
type ContentStore struct {
	db *sql.DB
}

// NewContentStore creates a new ContentStore with the given database connection.
func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

// ListPublished returns the public summaries of all published items of
// the given kind, newest first. The body is not part of the query.
func (s *ContentStore) ListPublished(ctx context.Context, kind models.ContentKind) ([]models.ContentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, title, slug, excerpt,
		       COALESCE(asset_key, '') <> '', published, created_at
		FROM content
		WHERE kind = $1 AND published
		ORDER BY created_at DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("list published content: %w", err)
	}
	defer rows.Close()

	var items []models.ContentSummary
	for rows.Next() {
		var c models.ContentSummary
		if err := rows.Scan(
			&c.ID, &c.Kind, &c.Title, &c.Slug, &c.Excerpt,
			&c.HasDownload, &c.Published, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan content summary: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindSummaryBySlug retrieves the public projection of a published item
// by its slug. Slug uniqueness is convention, not constraint; when
// operators reuse a slug the newest item wins. Returns nil if not found.
func (s *ContentStore) FindSummaryBySlug(ctx context.Context, slug string) (*models.ContentSummary, error) {
	c := &models.ContentSummary{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, title, slug, excerpt,
		       COALESCE(asset_key, '') <> '', published, created_at
		FROM content
		WHERE slug = $1 AND published
		ORDER BY created_at DESC
		LIMIT 1
	`, slug).Scan(
		&c.ID, &c.Kind, &c.Title, &c.Slug, &c.Excerpt,
		&c.HasDownload, &c.Published, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find content by slug: %w", err)
	}
	return c, nil
}

// FetchBody returns the gated body of a content item by ID. This is the
// only read that selects the body column; it must only be called from
// the gate package after an unlock decision.
func (s *ContentStore) FetchBody(ctx context.Context, id uuid.UUID) (string, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM content WHERE id = $1
	`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("fetch body: content %s not found", id)
	}
	if err != nil {
		return "", fmt.Errorf("fetch body: %w", err)
	}
	return body, nil
}

// AssetKey returns the private-bucket object key of a content item, or
// empty if it has no downloadable asset. Like FetchBody, only the
// unlocked path calls this.
func (s *ContentStore) AssetKey(ctx context.Context, id uuid.UUID) (string, error) {
	var key sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT asset_key FROM content WHERE id = $1
	`, id).Scan(&key)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("asset key: %w", err)
	}
	return key.String, nil
}

// Create inserts a new content item and returns it with the generated
// ID. Used by the seed and by operator tooling; there is no visitor
// write path to content.
func (s *ContentStore) Create(ctx context.Context, c *models.Content) (*models.Content, error) {
	result := &models.Content{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO content (kind, title, slug, excerpt, body, asset_key, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, kind, title, slug, excerpt, body, asset_key, published, created_at, updated_at
	`, c.Kind, c.Title, c.Slug, c.Excerpt, c.Body, c.AssetKey, c.Published,
	).Scan(
		&result.ID, &result.Kind, &result.Title, &result.Slug, &result.Excerpt,
		&result.Body, &result.AssetKey, &result.Published, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	return result, nil
}

// Update modifies an existing content item.
func (s *ContentStore) Update(ctx context.Context, c *models.Content) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE content SET
			kind = $1, title = $2, slug = $3, excerpt = $4, body = $5,
			asset_key = $6, published = $7, updated_at = NOW()
		WHERE id = $8
	`, c.Kind, c.Title, c.Slug, c.Excerpt, c.Body, c.AssetKey, c.Published, c.ID)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return nil
}

// Delete removes a content item by ID.
func (s *ContentStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}
