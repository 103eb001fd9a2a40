// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
)

// DeviceCookieName identifies the anonymous device cookie that scopes
// the unlock ledger. It is not an identity: clearing site data resets
// it, which also forgets the device's unlocks.
const DeviceCookieName = "gg_device"

// deviceIDLength is the byte length of the random device ID (16 bytes = 32 hex chars).
const deviceIDLength = 16

// deviceMaxAge keeps the cookie for one year.
const deviceMaxAge = 365 * 24 * 60 * 60

type contextKey string

// deviceKey is the context key holding the device ID.
const deviceKey contextKey = "device"

// DeviceID assigns every visitor a stable random device identifier via
// a long-lived cookie and places it on the request context. The unlock
// ledger keys off this ID.
func DeviceID(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(DeviceCookieName); err == nil && validDeviceID(cookie.Value) {
				id = cookie.Value
			}

			if id == "" {
				id = newDeviceID()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   deviceMaxAge,
				})
			}

			ctx := context.WithValue(r.Context(), deviceKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceFromContext returns the device ID set by the DeviceID
// middleware, or empty if none.
func DeviceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey).(string)
	return id
}

// newDeviceID creates a cryptographically random device identifier.
func newDeviceID() string {
	b := make([]byte, deviceIDLength)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// validDeviceID rejects malformed cookie values so they cannot inject
// arbitrary text into ledger keys.
func validDeviceID(s string) bool {
	if len(s) != deviceIDLength*2 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
