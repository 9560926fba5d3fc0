// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"inkpress/internal/model"
)

const createUser = `
INSERT INTO users (email, password_hash, role, name, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, email, password_hash, role, name, created_at, updated_at, last_login_at
`

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         model.Role
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns the created row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email, arg.PasswordHash, arg.Role, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	return scanUser(row)
}

const getUserByID = `
SELECT id, email, password_hash, role, name, created_at, updated_at, last_login_at
FROM users WHERE id = ?
`

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `
SELECT id, email, password_hash, role, name, created_at, updated_at, last_login_at
FROM users WHERE email = ?
`

// GetUserByEmail fetches a user by email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `
SELECT id, email, password_hash, role, name, created_at, updated_at, last_login_at
FROM users ORDER BY created_at DESC
`

// ListUsers returns all users, newest first.
func (q *Queries) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const updateUserRole = `
UPDATE users SET role = ?, updated_at = ? WHERE id = ?
`

// UpdateUserRoleParams holds the fields for UpdateUserRole.
type UpdateUserRoleParams struct {
	Role      model.Role
	UpdatedAt time.Time
	ID        int64
}

// UpdateUserRole changes a user's role.
func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) error {
	_, err := q.db.ExecContext(ctx, updateUserRole, arg.Role, arg.UpdatedAt, arg.ID)
	return err
}

const updateUserPassword = `
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
`

// UpdateUserPasswordParams holds the fields for UpdateUserPassword.
type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

// UpdateUserPassword replaces a user's password hash. Used both for
// password changes and for transparent rehashes on login.
func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const touchUserLogin = `
UPDATE users SET last_login_at = ? WHERE id = ?
`

// TouchUserLogin records a successful login time.
func (q *Queries) TouchUserLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, touchUserLogin, at, id)
	return err
}

const createRoleChange = `
INSERT INTO user_role_changes (user_id, old_role, new_role, changed_by, reason, changed_at)
VALUES (?, ?, ?, ?, ?, ?)
`

// CreateRoleChangeParams holds the fields for CreateRoleChange.
type CreateRoleChangeParams struct {
	UserID    int64
	OldRole   model.Role
	NewRole   model.Role
	ChangedBy int64
	Reason    string
	ChangedAt time.Time
}

// CreateRoleChange appends an audit row for a role change.
func (q *Queries) CreateRoleChange(ctx context.Context, arg CreateRoleChangeParams) error {
	_, err := q.db.ExecContext(ctx, createRoleChange,
		arg.UserID, arg.OldRole, arg.NewRole, arg.ChangedBy, arg.Reason, arg.ChangedAt)
	return err
}

const listRoleChangesForUser = `
SELECT id, user_id, old_role, new_role, changed_by, reason, changed_at
FROM user_role_changes WHERE user_id = ? ORDER BY changed_at DESC
`

// ListRoleChangesForUser returns the role change history of one user.
func (q *Queries) ListRoleChangesForUser(ctx context.Context, userID int64) ([]model.RoleChange, error) {
	rows, err := q.db.QueryContext(ctx, listRoleChangesForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []model.RoleChange
	for rows.Next() {
		var c model.RoleChange
		if err := rows.Scan(&c.ID, &c.UserID, &c.OldRole, &c.NewRole,
			&c.ChangedBy, &c.Reason, &c.ChangedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

func scanUserRows(rows *sql.Rows) (model.User, error) {
	var u model.User
	err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}
