// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors mapped to HTTP statuses at the handler boundary.
var (
	// ErrNotFound maps to 404.
	ErrNotFound = errors.New("not found")

	// ErrSlugTaken maps to 409.
	ErrSlugTaken = errors.New("slug already in use")

	// ErrSelfRoleChange maps to 400: an administrator can never change
	// their own role, not even a super_admin.
	ErrSelfRoleChange = errors.New("cannot change your own role")

	// ErrInvalidCredentials maps to 401 and deliberately does not say
	// whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrForbidden maps to 403: authenticated but lacking rank.
	ErrForbidden = errors.New("insufficient permissions")
)

// ValidationError carries all field-level problems at once, so clients
// see every broken field in a single 400 response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// TagInUseError is returned when deleting a tag that still has posts.
type TagInUseError struct {
	Count int64
}

func (e *TagInUseError) Error() string {
	return fmt.Sprintf("Cannot delete tag. It is used by %d post(s).", e.Count)
}

// RateLimitError maps to 429 with a retry hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}
