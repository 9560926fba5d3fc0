package service

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inkpress/internal/model"
	"inkpress/internal/ratelimit"
	"inkpress/internal/store"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "inkpress-service-*.db")
	require.NoError(t, err)
	dbPath := f.Name()
	f.Close()

	db, err := store.NewDB(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

func createUser(t *testing.T, db *sql.DB, email string, role model.Role) model.User {
	t.Helper()
	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return user
}

func newCommentService(t *testing.T, db *sql.DB) *CommentService {
	t.Helper()
	return NewCommentService(db, ratelimit.NewMemory(ratelimit.Comment), NewEventService(db))
}

func publishedPost(t *testing.T, db *sql.DB, authorID int64, slug string) *PostView {
	t.Helper()
	posts := NewPostService(db, NewEventService(db))
	post, err := posts.Create(context.Background(), authorID, PostInput{
		Title:   "Post " + slug,
		Slug:    slug,
		Content: "This is the content of the test post.",
		Status:  model.PostStatusPublished,
	})
	require.NoError(t, err)
	return post
}

func ptr[T any](v T) *T {
	return &v
}

func validComment(slug string) CommentInput {
	return CommentInput{
		PostSlug:    slug,
		AuthorName:  "Reader One",
		AuthorEmail: "Reader@Example.com",
		Content:     "This is a sufficiently long comment.",
		IPAddress:   "203.0.113.9",
	}
}
