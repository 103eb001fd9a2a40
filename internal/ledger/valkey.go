// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces unlock keys in Valkey, away from session and
// page-cache keys.
const keyPrefix = "gate:"

// Valkey is a Ledger backed by a Valkey (Redis-compatible) server,
// scoped to one device. Keys are "gate:<device>:<slug>" with no TTL —
// unlocks persist until the visitor's device identity is discarded.
type Valkey struct {
	client *redis.Client
	device string
}

// NewValkey creates a ledger bound to the given device identifier.
func NewValkey(client *redis.Client, device string) *Valkey {
	return &Valkey{client: client, device: device}
}

// Get reports whether this device has unlocked slug.
func (v *Valkey) Get(ctx context.Context, slug string) (bool, error) {
	n, err := v.client.Exists(ctx, v.key(slug)).Result()
	if err != nil {
		return false, fmt.Errorf("ledger get %q: %w", slug, err)
	}
	return n > 0, nil
}

// Set marks slug unlocked for this device. Idempotent; no expiry.
func (v *Valkey) Set(ctx context.Context, slug string) error {
	if err := v.client.Set(ctx, v.key(slug), "1", 0).Err(); err != nil {
		return fmt.Errorf("ledger set %q: %w", slug, err)
	}
	return nil
}

func (v *Valkey) key(slug string) string {
	return keyPrefix + v.device + ":" + slug
}
