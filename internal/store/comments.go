// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"inkpress/internal/model"
)

const commentColumns = `id, post_slug, parent_id, author_name, author_email, content, status, ip_address, created_at`

const createComment = `
INSERT INTO comments (id, post_slug, parent_id, author_name, author_email, content, status, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + commentColumns

// CreateCommentParams holds the fields for CreateComment.
type CreateCommentParams struct {
	ID          string
	PostSlug    string
	ParentID    model.NullString
	AuthorName  string
	AuthorEmail string
	Content     string
	Status      string
	IPAddress   model.NullString
	CreatedAt   time.Time
}

// CreateComment inserts a new comment and returns the created row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.ID, arg.PostSlug, arg.ParentID, arg.AuthorName, arg.AuthorEmail,
		arg.Content, arg.Status, arg.IPAddress, arg.CreatedAt)
	return scanComment(row)
}

const getCommentByID = `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

// GetCommentByID fetches a comment by its UUID.
func (q *Queries) GetCommentByID(ctx context.Context, id string) (model.Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, getCommentByID, id))
}

const listApprovedCommentsForPost = `
SELECT ` + commentColumns + ` FROM comments
WHERE post_slug = ? AND status = 'approved'
ORDER BY created_at ASC
`

// ListApprovedCommentsForPost returns the approved comments of a post,
// oldest first, for public display.
func (q *Queries) ListApprovedCommentsForPost(ctx context.Context, postSlug string) ([]model.Comment, error) {
	return q.queryComments(ctx, listApprovedCommentsForPost, postSlug)
}

// ListCommentsParams filters and paginates ListComments. An empty
// Status means any status; an empty PostSlug means any post.
type ListCommentsParams struct {
	Status   string
	PostSlug string
	Limit    int64
	Offset   int64
}

const listComments = `
SELECT ` + commentColumns + ` FROM comments
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR post_slug = ?2)
ORDER BY created_at DESC
LIMIT ?3 OFFSET ?4
`

// ListComments returns comments for moderation, newest first.
func (q *Queries) ListComments(ctx context.Context, arg ListCommentsParams) ([]model.Comment, error) {
	return q.queryComments(ctx, listComments,
		arg.Status, arg.PostSlug, arg.Limit, arg.Offset)
}

const countComments = `
SELECT COUNT(*) FROM comments
WHERE (?1 = '' OR status = ?1)
  AND (?2 = '' OR post_slug = ?2)
`

// CountComments returns the number of comments matching the filter.
func (q *Queries) CountComments(ctx context.Context, arg ListCommentsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countComments, arg.Status, arg.PostSlug).Scan(&n)
	return n, err
}

const updateCommentStatus = `UPDATE comments SET status = ? WHERE id = ?`

// UpdateCommentStatus sets a comment's moderation status.
func (q *Queries) UpdateCommentStatus(ctx context.Context, id string, status string) error {
	_, err := q.db.ExecContext(ctx, updateCommentStatus, status, id)
	return err
}

const deleteComment = `DELETE FROM comments WHERE id = ?`

// DeleteComment permanently removes a comment. Replies cascade.
func (q *Queries) DeleteComment(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteComment, id)
	return err
}

const moveCommentsToSlug = `UPDATE comments SET post_slug = ? WHERE post_slug = ?`

// MoveCommentsToSlug re-keys a post's comments after a slug rename.
func (q *Queries) MoveCommentsToSlug(ctx context.Context, oldSlug, newSlug string) error {
	_, err := q.db.ExecContext(ctx, moveCommentsToSlug, newSlug, oldSlug)
	return err
}

const deleteCommentsForPost = `DELETE FROM comments WHERE post_slug = ?`

// DeleteCommentsForPost removes all comments attached to a post slug.
// Called when the post itself is deleted.
func (q *Queries) DeleteCommentsForPost(ctx context.Context, postSlug string) error {
	_, err := q.db.ExecContext(ctx, deleteCommentsForPost, postSlug)
	return err
}

func (q *Queries) queryComments(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostSlug, &c.ParentID, &c.AuthorName, &c.AuthorEmail,
			&c.Content, &c.Status, &c.IPAddress, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func scanComment(row *sql.Row) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostSlug, &c.ParentID, &c.AuthorName, &c.AuthorEmail,
		&c.Content, &c.Status, &c.IPAddress, &c.CreatedAt)
	return c, err
}
