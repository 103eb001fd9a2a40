// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package gate

import "fmt"

// ValidationError reports an empty required form field. It is handled
// locally and never reaches the store or the network.
type ValidationError struct {
	Field string // "name" or "email"
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field %q is empty", e.Field)
}

// WriteError wraps a failed lead write. Visitors see a generic retry
// message; the cause stays in the logs.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "lead write failed: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

// FetchError wraps a gated-body fetch failure after a confirmed unlock.
// It never reverts the unlock; the controller stays in StateUnlocking
// and the fetch may be retried.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "gated body fetch failed: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }
