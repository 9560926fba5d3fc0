// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package policy

import (
	"testing"

	"inkpress/internal/model"
)

var allRoles = []model.Role{model.RoleReader, model.RoleAuthor, model.RoleAdmin, model.RoleSuperAdmin}

func TestHasRoleMatchesRankOrder(t *testing.T) {
	// HasRole(subject, required) must hold exactly when
	// rank(subject) >= rank(required), for all 4x4 role pairs.
	for _, subject := range allRoles {
		for _, required := range allRoles {
			want := subject.Rank() >= required.Rank()
			if got := HasRole(subject, required); got != want {
				t.Errorf("HasRole(%s, %s) = %v, want %v", subject, required, got, want)
			}
		}
	}
}

func TestHasRoleUnknownRole(t *testing.T) {
	for _, required := range allRoles {
		if HasRole(model.Role("moderator"), required) {
			t.Errorf("unknown role must not pass check against %s", required)
		}
	}
	if HasRole("", model.RoleReader) {
		t.Error("empty role must not pass any check")
	}
}

func TestCanReadPost(t *testing.T) {
	tests := []struct {
		name         string
		role         model.Role
		subjectID    int64
		postAuthorID int64
		want         bool
	}{
		{"author reads own post", model.RoleAuthor, 1, 1, true},
		{"author cannot read another's post", model.RoleAuthor, 1, 2, false},
		{"admin bypasses ownership", model.RoleAdmin, 1, 2, true},
		{"super_admin bypasses ownership", model.RoleSuperAdmin, 1, 2, true},
		{"reader cannot read own-authored post", model.RoleReader, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanReadPost(tt.role, tt.subjectID, tt.postAuthorID); got != tt.want {
				t.Errorf("CanReadPost(%s, %d, %d) = %v, want %v", tt.role, tt.subjectID, tt.postAuthorID, got, tt.want)
			}
		})
	}
}

func TestCanEditPost(t *testing.T) {
	tests := []struct {
		name         string
		role         model.Role
		subjectID    int64
		postAuthorID int64
		want         bool
	}{
		{"author edits own post", model.RoleAuthor, 1, 1, true},
		{"author cannot edit another's post", model.RoleAuthor, 1, 2, false},
		{"admin bypasses ownership", model.RoleAdmin, 1, 2, true},
		{"super_admin bypasses ownership", model.RoleSuperAdmin, 1, 2, true},
		{"reader cannot edit own-authored post", model.RoleReader, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEditPost(tt.role, tt.subjectID, tt.postAuthorID); got != tt.want {
				t.Errorf("CanEditPost(%s, %d, %d) = %v, want %v", tt.role, tt.subjectID, tt.postAuthorID, got, tt.want)
			}
		})
	}
}

func TestCanDeletePost(t *testing.T) {
	// Deletion requires admin rank regardless of authorship.
	if CanDeletePost(model.RoleAuthor) {
		t.Error("author must not delete posts")
	}
	if !CanDeletePost(model.RoleAdmin) {
		t.Error("admin must delete posts")
	}
	if !CanDeletePost(model.RoleSuperAdmin) {
		t.Error("super_admin must delete posts")
	}
}

func TestCanModerateComments(t *testing.T) {
	for _, r := range allRoles {
		want := r == model.RoleSuperAdmin
		if got := CanModerateComments(r); got != want {
			t.Errorf("CanModerateComments(%s) = %v, want %v", r, got, want)
		}
	}
}

func TestCanChangeRoleNeverSelf(t *testing.T) {
	// Even a super_admin may not change their own role.
	for _, r := range allRoles {
		if CanChangeRole(r, 7, 7) {
			t.Errorf("%s must not change own role", r)
		}
	}
	if !CanChangeRole(model.RoleSuperAdmin, 7, 8) {
		t.Error("super_admin must change other users' roles")
	}
	if CanChangeRole(model.RoleAdmin, 7, 8) {
		t.Error("admin must not change roles")
	}
}
