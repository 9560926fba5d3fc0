// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including User, Post, Comment, Tag and audit event structures.
package model

import (
	"fmt"
	"time"
)

// Role is a closed enumeration of user roles with a strict total order.
type Role string

// User roles, ordered from least to most privileged.
const (
	RoleReader     Role = "reader"
	RoleAuthor     Role = "author"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// Rank returns the numeric level of a role in the hierarchy.
// Unknown roles rank below reader so they never pass a capability check.
func (r Role) Rank() int {
	switch r {
	case RoleReader:
		return 0
	case RoleAuthor:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return -1
	}
}

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// AtLeast reports whether the role meets or exceeds the required role.
func (r Role) AtLeast(required Role) bool {
	return r.Valid() && r.Rank() >= required.Rank()
}

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}

// User represents a CMS user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         Role      `json:"role"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  NullTime  `json:"last_login_at"`
}

// IsAdmin returns true if the user has at least admin rank.
func (u *User) IsAdmin() bool {
	return u.Role.AtLeast(RoleAdmin)
}

// RoleChange is an audit record of a user role mutation.
type RoleChange struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	OldRole   Role      `json:"old_role"`
	NewRole   Role      `json:"new_role"`
	ChangedBy int64     `json:"changed_by"`
	Reason    string    `json:"reason"`
	ChangedAt time.Time `json:"changed_at"`
}
