// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ledger records which content slugs a device has already
// unlocked. The ledger is a convenience, not a security boundary: its
// only job is sparing a returning visitor the lead form. Entries never
// expire and no clear operation is exposed — only the visitor's own
// device storage controls can remove them.
package ledger

import (
	"context"
	"sync"
)

// Ledger is the durable per-device unlock flag, keyed by content slug.
// Get returns false for slugs never set. Set is idempotent.
type Ledger interface {
	Get(ctx context.Context, slug string) (bool, error)
	Set(ctx context.Context, slug string) error
}

// Memory is an in-process Ledger used by tests and as a fallback when
// Valkey is unavailable. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	unlocked map[string]bool
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{unlocked: make(map[string]bool)}
}

// Get reports whether slug has been unlocked.
func (m *Memory) Get(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unlocked[slug], nil
}

// Set marks slug unlocked. Setting an already-set slug is a no-op.
func (m *Memory) Set(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlocked[slug] = true
	return nil
}
