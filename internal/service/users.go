// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inkpress/internal/auth"
	"inkpress/internal/model"
	"inkpress/internal/policy"
	"inkpress/internal/store"
)

// UserService handles authentication and role management.
type UserService struct {
	queries *store.Queries
	events  *EventService
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events *EventService) *UserService {
	return &UserService{queries: store.New(db), events: events}
}

// Authenticate verifies credentials and returns the user. Hashes made
// with older parameters are transparently upgraded on success.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			err = s.queries.UpdateUserPassword(ctx, store.UpdateUserPasswordParams{
				PasswordHash: newHash, UpdatedAt: now, ID: user.ID,
			})
			if err != nil {
				slog.Warn("failed to upgrade password hash", "user_id", user.ID, "error", err)
			}
		}
	}

	if err := s.queries.TouchUserLogin(ctx, user.ID, now); err != nil {
		slog.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = model.NullTimeFrom(now)

	return &user, nil
}

// GetByID returns one user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// List returns all users, newest first.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Register creates a new account with the reader role.
func (s *UserService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	fields := make(map[string]string)
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "Valid email is required"
	}
	if len(password) < 8 {
		fields["password"] = "Password must be at least 8 characters"
	}
	if name == "" {
		fields["name"] = "Name is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return nil, &ValidationError{Fields: map[string]string{"email": "Email is already registered"}}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleReader,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

// ChangeRole sets a user's role. Only a super_admin may do this, and
// never on their own account. The change is recorded in the role audit
// table best-effort: a failed audit write does not undo the change.
func (s *UserService) ChangeRole(ctx context.Context, actor *model.User, targetID int64, newRole model.Role, reason string) (*model.User, error) {
	if !newRole.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"role": "Unknown role"}}
	}
	if actor.ID == targetID {
		return nil, ErrSelfRoleChange
	}
	if !policy.CanChangeRole(actor.Role, actor.ID, targetID) {
		return nil, fmt.Errorf("actor %d: %w", actor.ID, ErrForbidden)
	}

	target, err := s.queries.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	oldRole := target.Role
	now := time.Now()
	if oldRole != newRole {
		err = s.queries.UpdateUserRole(ctx, store.UpdateUserRoleParams{
			Role: newRole, UpdatedAt: now, ID: targetID,
		})
		if err != nil {
			return nil, fmt.Errorf("updating role: %w", err)
		}

		// Best-effort audit trail.
		auditErr := s.queries.CreateRoleChange(ctx, store.CreateRoleChangeParams{
			UserID:    targetID,
			OldRole:   oldRole,
			NewRole:   newRole,
			ChangedBy: actor.ID,
			Reason:    strings.TrimSpace(reason),
			ChangedAt: now,
		})
		if auditErr != nil {
			slog.Error("failed to record role change audit",
				"user_id", targetID, "error", auditErr)
		}

		s.events.Record(ctx, model.Event{
			Category: model.EventCategoryUser,
			Type:     "role_changed",
			Message:  fmt.Sprintf("user %d role changed from %s to %s", targetID, oldRole, newRole),
			Success:  true,
			UserID:   model.NullInt64From(actor.ID),
		})
	}

	target.Role = newRole
	target.UpdatedAt = now
	return &target, nil
}

// RoleHistory returns the role change audit rows for one user.
func (s *UserService) RoleHistory(ctx context.Context, userID int64) ([]model.RoleChange, error) {
	changes, err := s.queries.ListRoleChangesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing role changes: %w", err)
	}
	if changes == nil {
		changes = []model.RoleChange{}
	}
	return changes, nil
}
