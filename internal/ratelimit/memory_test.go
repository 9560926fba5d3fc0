package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newTestLimiter(rule Rule) (*MemoryLimiter, *time.Time) {
	l := NewMemory(rule)
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestMemoryLimiter_AllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(Comment)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("Allow error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d rejected, want allowed", i+1)
		}
		if res.Remaining != 2-i {
			t.Errorf("request %d remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res, err := l.Allow(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Allow error: %v", err)
	}
	if res.Allowed {
		t.Fatal("4th request allowed, want rejected")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > Comment.Window {
		t.Errorf("RetryAfter = %v, want within (0, %v]", res.RetryAfter, Comment.Window)
	}
}

func TestMemoryLimiter_RejectionConsumesNoBudget(t *testing.T) {
	l, now := newTestLimiter(Comment)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := l.Allow(ctx, "k"); err != nil {
			t.Fatal(err)
		}
	}

	// Hammering while limited must not push the reset out.
	for i := 0; i < 10; i++ {
		res, err := l.Allow(ctx, "k")
		if err != nil {
			t.Fatal(err)
		}
		if res.Allowed {
			t.Fatal("request allowed while window exhausted")
		}
	}

	*now = now.Add(Comment.Window)
	res, err := l.Allow(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("request after window expiry rejected, want allowed")
	}
	if res.Remaining != 2 {
		t.Errorf("fresh window remaining = %d, want 2", res.Remaining)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Login)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := l.Allow(ctx, "10.0.0.1"); err != nil {
			t.Fatal(err)
		}
	}

	res, err := l.Allow(ctx, "10.0.0.2")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("second key rejected after first key hit its limit")
	}
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	l, now := newTestLimiter(Comment)
	ctx := context.Background()

	if _, err := l.Allow(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Allow(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	if removed := l.Sweep(); removed != 0 {
		t.Errorf("Sweep removed %d live windows, want 0", removed)
	}

	*now = now.Add(2 * Comment.Window)
	if removed := l.Sweep(); removed != 2 {
		t.Errorf("Sweep removed %d, want 2", removed)
	}
}
