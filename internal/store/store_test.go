package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"inkpress/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "inkpress-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})

	return db
}

func createTestUser(t *testing.T, q *Queries, email string, role model.Role) model.User {
	t.Helper()
	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		PasswordHash: "hashed-password",
		Role:         role,
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, q *Queries, authorID int64, slug, status string) model.Post {
	t.Helper()
	now := time.Now()
	post, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:     "Test Post",
		Slug:      slug,
		Content:   "Some content.",
		Status:    status,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return post
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	q := New(db)

	user := createTestUser(t, q, "test@example.com", model.RoleAuthor)

	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if user.Role != model.RoleAuthor {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleAuthor)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	q := New(db)

	createTestUser(t, q, "dup@example.com", model.RoleReader)

	now := time.Now()
	_, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        "dup@example.com",
		PasswordHash: "x",
		Role:         model.RoleReader,
		Name:         "Other",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate email")
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := testDB(t)
	q := New(db)

	_, err := q.GetUserByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	user := createTestUser(t, q, "promote@example.com", model.RoleReader)

	err := q.UpdateUserRole(ctx, UpdateUserRoleParams{
		Role:      model.RoleAdmin,
		UpdatedAt: time.Now(),
		ID:        user.ID,
	})
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}

	got, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleAdmin)
	}
}

func TestRoleChangeAudit(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	admin := createTestUser(t, q, "root@example.com", model.RoleSuperAdmin)
	user := createTestUser(t, q, "member@example.com", model.RoleReader)

	err := q.CreateRoleChange(ctx, CreateRoleChangeParams{
		UserID:    user.ID,
		OldRole:   model.RoleReader,
		NewRole:   model.RoleAuthor,
		ChangedBy: admin.ID,
		Reason:    "trusted contributor",
		ChangedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateRoleChange: %v", err)
	}

	changes, err := q.ListRoleChangesForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRoleChangesForUser: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("len(changes) = %d, want 1", len(changes))
	}
	if changes[0].OldRole != model.RoleReader || changes[0].NewRole != model.RoleAuthor {
		t.Errorf("change = %s -> %s, want reader -> author", changes[0].OldRole, changes[0].NewRole)
	}
}

func TestPostLifecycle(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	author := createTestUser(t, q, "author@example.com", model.RoleAuthor)
	post := createTestPost(t, q, author.ID, "first-post", model.PostStatusDraft)

	if post.PublishedAt.Valid {
		t.Error("draft post must not have published_at set")
	}

	publishedAt := time.Now()
	updated, err := q.UpdatePost(ctx, UpdatePostParams{
		Title:       post.Title,
		Slug:        post.Slug,
		Content:     post.Content,
		Excerpt:     post.Excerpt,
		Status:      model.PostStatusPublished,
		UpdatedAt:   publishedAt,
		PublishedAt: model.NullTimeFrom(publishedAt),
		ID:          post.ID,
	})
	if err != nil {
		t.Fatalf("UpdatePost: %v", err)
	}
	if !updated.PublishedAt.Valid {
		t.Error("published post must have published_at set")
	}

	if err := q.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, err := q.GetPostByID(ctx, post.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err after delete = %v, want sql.ErrNoRows", err)
	}
}

func TestCreatePost_DuplicateSlug(t *testing.T) {
	db := testDB(t)
	q := New(db)

	author := createTestUser(t, q, "author@example.com", model.RoleAuthor)
	createTestPost(t, q, author.ID, "same-slug", model.PostStatusDraft)

	now := time.Now()
	_, err := q.CreatePost(context.Background(), CreatePostParams{
		Title:     "Another",
		Slug:      "same-slug",
		Content:   "x",
		Status:    model.PostStatusDraft,
		AuthorID:  author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error for duplicate slug")
	}
}

func TestListPosts_Filters(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	a := createTestUser(t, q, "a@example.com", model.RoleAuthor)
	b := createTestUser(t, q, "b@example.com", model.RoleAuthor)
	createTestPost(t, q, a.ID, "a-draft", model.PostStatusDraft)
	createTestPost(t, q, a.ID, "a-published", model.PostStatusPublished)
	createTestPost(t, q, b.ID, "b-published", model.PostStatusPublished)

	published, err := q.ListPosts(ctx, ListPostsParams{
		Status: model.PostStatusPublished, Limit: 10,
	})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(published) != 2 {
		t.Errorf("published count = %d, want 2", len(published))
	}

	byAuthor, err := q.ListPosts(ctx, ListPostsParams{AuthorID: a.ID, Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(byAuthor) != 2 {
		t.Errorf("author posts = %d, want 2", len(byAuthor))
	}

	total, err := q.CountPosts(ctx, ListPostsParams{})
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	if total != 3 {
		t.Errorf("CountPosts = %d, want 3", total)
	}
}

func TestTagsAndPostLinks(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	author := createTestUser(t, q, "author@example.com", model.RoleAuthor)
	post := createTestPost(t, q, author.ID, "tagged-post", model.PostStatusPublished)

	now := time.Now()
	tag, err := q.CreateTag(ctx, CreateTagParams{
		Name: "Go", Slug: "go", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.PostCount != 0 {
		t.Errorf("new tag PostCount = %d, want 0", tag.PostCount)
	}

	if err := q.AddPostTag(ctx, post.ID, tag.ID); err != nil {
		t.Fatalf("AddPostTag: %v", err)
	}

	got, err := q.GetTagBySlug(ctx, "go")
	if err != nil {
		t.Fatalf("GetTagBySlug: %v", err)
	}
	if got.PostCount != 1 {
		t.Errorf("PostCount = %d, want 1", got.PostCount)
	}

	byTag, err := q.ListPosts(ctx, ListPostsParams{TagSlug: "go", Limit: 10})
	if err != nil {
		t.Fatalf("ListPosts by tag: %v", err)
	}
	if len(byTag) != 1 || byTag[0].ID != post.ID {
		t.Fatalf("posts by tag = %v, want the tagged post", byTag)
	}

	// Deleting the post cascades the link, freeing the tag.
	if err := q.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	count, err := q.CountPostsForTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("CountPostsForTag: %v", err)
	}
	if count != 0 {
		t.Errorf("CountPostsForTag after post delete = %d, want 0", count)
	}
}

func TestCommentQueries(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	newComment := func(slug, status string, parent model.NullString) model.Comment {
		c, err := q.CreateComment(ctx, CreateCommentParams{
			ID:          uuid.NewString(),
			PostSlug:    slug,
			ParentID:    parent,
			AuthorName:  "Reader",
			AuthorEmail: "reader@example.com",
			Content:     "This is a thoughtful comment.",
			Status:      status,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
		return c
	}

	top := newComment("my-post", model.CommentStatusApproved, model.NullString{})
	newComment("my-post", model.CommentStatusApproved, model.NullStringFrom(top.ID))
	newComment("my-post", model.CommentStatusPending, model.NullString{})
	newComment("other-post", model.CommentStatusApproved, model.NullString{})

	approved, err := q.ListApprovedCommentsForPost(ctx, "my-post")
	if err != nil {
		t.Fatalf("ListApprovedCommentsForPost: %v", err)
	}
	if len(approved) != 2 {
		t.Errorf("approved comments = %d, want 2", len(approved))
	}

	pending, err := q.CountComments(ctx, ListCommentsParams{Status: model.CommentStatusPending})
	if err != nil {
		t.Fatalf("CountComments: %v", err)
	}
	if pending != 1 {
		t.Errorf("pending count = %d, want 1", pending)
	}

	// Deleting a parent cascades to its replies.
	if err := q.DeleteComment(ctx, top.ID); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	remaining, err := q.CountComments(ctx, ListCommentsParams{PostSlug: "my-post"})
	if err != nil {
		t.Fatalf("CountComments: %v", err)
	}
	if remaining != 1 {
		t.Errorf("remaining comments = %d, want 1 (reply must cascade)", remaining)
	}
}

func TestEventRetention(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	old := model.Event{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategoryAuth,
		Type:      model.EventTypeLogin,
		Message:   "user logged in",
		Success:   true,
		CreatedAt: time.Now().AddDate(0, 0, -120),
	}
	fresh := old
	fresh.CreatedAt = time.Now()

	if err := q.CreateEvent(ctx, old); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := q.CreateEvent(ctx, fresh); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	removed, err := q.DeleteEventsBefore(ctx, time.Now().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	n, err := q.CountEvents(ctx, ListEventsParams{})
	if err != nil {
		t.Fatalf("CountEvents: %v", err)
	}
	if n != 1 {
		t.Errorf("CountEvents = %d, want 1", n)
	}
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	q := New(db)
	user, err := q.GetUserByEmail(ctx, DefaultAdminEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user.Role != model.RoleSuperAdmin {
		t.Errorf("seeded role = %q, want super_admin", user.Role)
	}

	// Seeding twice must be a no-op.
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
}
