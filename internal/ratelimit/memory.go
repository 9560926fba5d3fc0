// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a fixed-window limiter backed by an in-process map.
// Windows are reset lazily on access; Sweep drops expired entries so
// the map does not grow without bound.
type MemoryLimiter struct {
	rule    Rule
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemory creates an in-memory limiter for the given rule.
func NewMemory(rule Rule) *MemoryLimiter {
	return &MemoryLimiter{
		rule:    rule,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow checks and consumes one unit of budget for key. When the
// window is exhausted the call is rejected without incrementing the
// counter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(l.rule.Window)}
		l.windows[key] = w
	}

	if w.count >= l.rule.Limit {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.resetAt.Sub(now),
		}, nil
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: l.rule.Limit - w.count,
	}, nil
}

// Sweep removes expired windows. Called periodically by the scheduler.
// Returns the number of entries removed.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}
