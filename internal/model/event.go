// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryPost    = "post"
	EventCategoryComment = "comment"
	EventCategoryUser    = "user"
	EventCategorySystem  = "system"
)

// Auth event types recorded in the audit log.
const (
	EventTypeLogin       = "login"
	EventTypeFailedLogin = "failed_login"
	EventTypeLogout      = "logout"
)

// Event represents an append-only audit log entry. Writes are best-effort:
// a failed insert never aborts the operation that produced the event.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Type      string
	Message   string
	Success   bool
	UserID    NullInt64
	IPAddress string
	UserAgent string
	Metadata  string // JSON string
	CreatedAt time.Time
}
