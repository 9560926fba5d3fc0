// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"inkpress/internal/model"
)

const postColumns = `id, title, slug, content, excerpt, status, author_id, created_at, updated_at, published_at`

const createPost = `
INSERT INTO posts (title, slug, content, excerpt, status, author_id, created_at, updated_at, published_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + postColumns

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	Status      string
	AuthorID    int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt model.NullTime
}

// CreatePost inserts a new post and returns the created row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, createPost,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Status,
		arg.AuthorID, arg.CreatedAt, arg.UpdatedAt, arg.PublishedAt)
	return scanPost(row)
}

const getPostByID = `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

// GetPostByID fetches a post by primary key.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostByID, id))
}

const getPostBySlug = `SELECT ` + postColumns + ` FROM posts WHERE slug = ?`

// GetPostBySlug fetches a post by its URL slug.
func (q *Queries) GetPostBySlug(ctx context.Context, slug string) (model.Post, error) {
	return scanPost(q.db.QueryRowContext(ctx, getPostBySlug, slug))
}

const updatePost = `
UPDATE posts
SET title = ?, slug = ?, content = ?, excerpt = ?, status = ?, updated_at = ?, published_at = ?
WHERE id = ?
RETURNING ` + postColumns

// UpdatePostParams holds the fields for UpdatePost.
type UpdatePostParams struct {
	Title       string
	Slug        string
	Content     string
	Excerpt     string
	Status      string
	UpdatedAt   time.Time
	PublishedAt model.NullTime
	ID          int64
}

// UpdatePost replaces the mutable fields of a post and returns the
// updated row.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (model.Post, error) {
	row := q.db.QueryRowContext(ctx, updatePost,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.Status,
		arg.UpdatedAt, arg.PublishedAt, arg.ID)
	return scanPost(row)
}

const deletePost = `DELETE FROM posts WHERE id = ?`

// DeletePost removes a post. Tag links cascade via post_tags.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePost, id)
	return err
}

// ListPostsParams filters and paginates ListPosts. A zero Status means
// any status; a zero AuthorID means any author.
type ListPostsParams struct {
	Status   string
	AuthorID int64
	TagSlug  string
	Limit    int64
	Offset   int64
}

const listPosts = `
SELECT ` + postColumns + ` FROM posts
WHERE (?1 = '' OR status = ?1)
  AND (?2 = 0 OR author_id = ?2)
  AND (?3 = '' OR id IN (
      SELECT pt.post_id FROM post_tags pt
      JOIN tags t ON t.id = pt.tag_id
      WHERE t.slug = ?3))
ORDER BY COALESCE(published_at, created_at) DESC
LIMIT ?4 OFFSET ?5
`

// ListPosts returns posts matching the filter, newest first.
func (q *Queries) ListPosts(ctx context.Context, arg ListPostsParams) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx, listPosts,
		arg.Status, arg.AuthorID, arg.TagSlug, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPostRows(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

const countPosts = `
SELECT COUNT(*) FROM posts
WHERE (?1 = '' OR status = ?1)
  AND (?2 = 0 OR author_id = ?2)
  AND (?3 = '' OR id IN (
      SELECT pt.post_id FROM post_tags pt
      JOIN tags t ON t.id = pt.tag_id
      WHERE t.slug = ?3))
`

// CountPosts returns the number of posts matching the filter.
func (q *Queries) CountPosts(ctx context.Context, arg ListPostsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPosts,
		arg.Status, arg.AuthorID, arg.TagSlug).Scan(&n)
	return n, err
}

const addPostTag = `INSERT OR IGNORE INTO post_tags (post_id, tag_id) VALUES (?, ?)`

// AddPostTag links a tag to a post.
func (q *Queries) AddPostTag(ctx context.Context, postID, tagID int64) error {
	_, err := q.db.ExecContext(ctx, addPostTag, postID, tagID)
	return err
}

const clearPostTags = `DELETE FROM post_tags WHERE post_id = ?`

// ClearPostTags removes all tag links from a post.
func (q *Queries) ClearPostTags(ctx context.Context, postID int64) error {
	_, err := q.db.ExecContext(ctx, clearPostTags, postID)
	return err
}

const listTagsForPost = `
SELECT t.id, t.name, t.slug, t.created_at, t.updated_at,
       (SELECT COUNT(*) FROM post_tags pt2 WHERE pt2.tag_id = t.id) AS post_count
FROM tags t
JOIN post_tags pt ON pt.tag_id = t.id
WHERE pt.post_id = ?
ORDER BY t.name
`

// ListTagsForPost returns the tags linked to a post, sorted by name.
func (q *Queries) ListTagsForPost(ctx context.Context, postID int64) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTagsForPost, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt, &t.PostCount); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func scanPost(row *sql.Row) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt)
	return p, err
}

func scanPostRows(rows *sql.Rows) (model.Post, error) {
	var p model.Post
	err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Status,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.PublishedAt)
	return p, err
}
