// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Comment statuses. Every comment starts as pending; only approved
// comments are visible on public pages.
const (
	CommentStatusPending  = "pending"
	CommentStatusApproved = "approved"
	CommentStatusRejected = "rejected"
)

// Moderation actions accepted by the single and bulk moderation endpoints.
const (
	ModerationApprove = "approve"
	ModerationReject  = "reject"
	ModerationDelete  = "delete"
)

// ValidModerationAction reports whether s is a known moderation action.
func ValidModerationAction(s string) bool {
	return s == ModerationApprove || s == ModerationReject || s == ModerationDelete
}

// Comment represents a reader comment on a post. AuthorEmail and IPAddress
// are moderation-only fields and must never reach a public response.
type Comment struct {
	ID          string     `json:"id"`
	PostSlug    string     `json:"post_slug"`
	ParentID    NullString `json:"parent_id"` // one level of nesting only
	AuthorName  string     `json:"author_name"`
	AuthorEmail string     `json:"author_email"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	IPAddress   NullString `json:"ip_address"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IsApproved returns true if the comment is publicly visible.
func (c *Comment) IsApproved() bool {
	return c.Status == CommentStatusApproved
}
