// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ratelimit implements fixed-window rate limiting keyed by an
// arbitrary string (client IP for logins, commenter email for
// comments). Two backends exist: an in-process map for single-node
// deployments and Redis for sharing counters across instances.
package ratelimit

import (
	"context"
	"time"
)

// Rule describes a fixed window: at most Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Login allows 5 attempts per source IP in a 15 minute window.
var Login = Rule{Limit: 5, Window: 15 * time.Minute}

// Comment allows 3 submissions per commenter email in a 60 second window.
var Comment = Rule{Limit: 3, Window: 60 * time.Second}

// Result reports the outcome of a single Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the window resets. Only meaningful
	// when Allowed is false.
	RetryAfter time.Duration
}

// Limiter answers whether a keyed request fits inside the current
// window. A rejected request must not consume budget: probing while
// limited never extends the lockout.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
