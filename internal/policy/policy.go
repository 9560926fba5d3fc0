// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy is the single authorization surface for the application.
// Every mutating operation consults these predicates at its boundary; the
// route-level middleware exists only as a fast-path redirect for browsers,
// not as the security boundary.
package policy

import "inkpress/internal/model"

// HasRole reports whether the subject role meets the required role.
// It holds iff rank(subject) >= rank(required); unknown roles never pass.
func HasRole(subject, required model.Role) bool {
	return subject.AtLeast(required)
}

// CanWritePosts reports whether the subject may create posts and see the
// admin post listing.
func CanWritePosts(subject model.Role) bool {
	return HasRole(subject, model.RoleAuthor)
}

// CanReadPost reports whether the subject may read the given post
// through the admin API, drafts included. Authors see only their own
// posts; admin and super_admin bypass the ownership check.
func CanReadPost(subject model.Role, subjectID, postAuthorID int64) bool {
	if HasRole(subject, model.RoleAdmin) {
		return true
	}
	return HasRole(subject, model.RoleAuthor) && subjectID == postAuthorID
}

// CanEditPost reports whether the subject may update the given post.
// The ownership rule is the same as for reading: authors are restricted
// to their own posts, admin and super_admin bypass the check.
func CanEditPost(subject model.Role, subjectID, postAuthorID int64) bool {
	return CanReadPost(subject, subjectID, postAuthorID)
}

// CanDeletePost reports whether the subject may delete posts.
// Deletion requires admin rank regardless of authorship.
func CanDeletePost(subject model.Role) bool {
	return HasRole(subject, model.RoleAdmin)
}

// CanModerateComments reports whether the subject may approve, reject or
// delete comments.
func CanModerateComments(subject model.Role) bool {
	return HasRole(subject, model.RoleSuperAdmin)
}

// CanManageTags reports whether the subject may create or rename tags.
func CanManageTags(subject model.Role) bool {
	return HasRole(subject, model.RoleAuthor)
}

// CanDeleteTags reports whether the subject may delete tags.
func CanDeleteTags(subject model.Role) bool {
	return HasRole(subject, model.RoleSuperAdmin)
}

// CanManageUsers reports whether the subject may list users and change roles.
func CanManageUsers(subject model.Role) bool {
	return HasRole(subject, model.RoleSuperAdmin)
}

// CanChangeRole reports whether the subject may change the target user's
// role. A subject may never change its own role, whatever its rank.
func CanChangeRole(subject model.Role, subjectID, targetID int64) bool {
	if subjectID == targetID {
		return false
	}
	return CanManageUsers(subject)
}
