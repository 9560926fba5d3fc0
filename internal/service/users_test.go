package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpress/internal/model"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))
	ctx := context.Background()

	user, err := users.Register(ctx, "New.Reader@Example.COM", "sup3r-secret", "New Reader")
	require.NoError(t, err)
	assert.Equal(t, "new.reader@example.com", user.Email)
	assert.Equal(t, model.RoleReader, user.Role, "new accounts start as reader")

	got, err := users.Authenticate(ctx, "new.reader@example.com", "sup3r-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, got.LastLoginAt.Valid, "login must be recorded")

	_, err = users.Authenticate(ctx, "new.reader@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody@example.com", "whatever123")
	assert.ErrorIs(t, err, ErrInvalidCredentials,
		"unknown email must be indistinguishable from a bad password")
}

func TestRegister_Validation(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))
	ctx := context.Background()

	_, err := users.Register(ctx, "bad-email", "short", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "name")

	_, err = users.Register(ctx, "dup@example.com", "password123", "First")
	require.NoError(t, err)
	_, err = users.Register(ctx, "dup@example.com", "password123", "Second")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestChangeRole(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))
	ctx := context.Background()

	root := createUser(t, db, "root@example.com", model.RoleSuperAdmin)
	member := createUser(t, db, "member@example.com", model.RoleReader)

	updated, err := users.ChangeRole(ctx, &root, member.ID, model.RoleAuthor, "trusted contributor")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAuthor, updated.Role)

	history, err := users.RoleHistory(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.RoleReader, history[0].OldRole)
	assert.Equal(t, model.RoleAuthor, history[0].NewRole)
	assert.Equal(t, root.ID, history[0].ChangedBy)
	assert.Equal(t, "trusted contributor", history[0].Reason)
}

func TestChangeRole_NeverSelf(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))

	root := createUser(t, db, "root@example.com", model.RoleSuperAdmin)

	_, err := users.ChangeRole(context.Background(), &root, root.ID, model.RoleReader, "")
	assert.ErrorIs(t, err, ErrSelfRoleChange)
}

func TestChangeRole_RequiresSuperAdmin(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))

	admin := createUser(t, db, "admin@example.com", model.RoleAdmin)
	member := createUser(t, db, "member@example.com", model.RoleReader)

	_, err := users.ChangeRole(context.Background(), &admin, member.ID, model.RoleAuthor, "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestChangeRole_NoOpWhenSameRole(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))
	ctx := context.Background()

	root := createUser(t, db, "root@example.com", model.RoleSuperAdmin)
	member := createUser(t, db, "member@example.com", model.RoleReader)

	_, err := users.ChangeRole(ctx, &root, member.ID, model.RoleReader, "")
	require.NoError(t, err)

	history, err := users.RoleHistory(ctx, member.ID)
	require.NoError(t, err)
	assert.Empty(t, history, "same-role change must not write an audit row")
}

func TestChangeRole_UnknownRole(t *testing.T) {
	db := testDB(t)
	users := NewUserService(db, NewEventService(db))

	root := createUser(t, db, "root@example.com", model.RoleSuperAdmin)
	member := createUser(t, db, "member@example.com", model.RoleReader)

	_, err := users.ChangeRole(context.Background(), &root, member.ID, model.Role("owner"), "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
