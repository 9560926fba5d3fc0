// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"inkpress/internal/model"
)

const tagColumns = `id, name, slug, created_at, updated_at,
       (SELECT COUNT(*) FROM post_tags pt WHERE pt.tag_id = tags.id) AS post_count`

const createTag = `
INSERT INTO tags (name, slug, created_at, updated_at)
VALUES (?, ?, ?, ?)
RETURNING id, name, slug, created_at, updated_at, 0 AS post_count
`

// CreateTagParams holds the fields for CreateTag.
type CreateTagParams struct {
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateTag inserts a new tag and returns the created row.
func (q *Queries) CreateTag(ctx context.Context, arg CreateTagParams) (model.Tag, error) {
	row := q.db.QueryRowContext(ctx, createTag, arg.Name, arg.Slug, arg.CreatedAt, arg.UpdatedAt)
	return scanTag(row)
}

const getTagByID = `SELECT ` + tagColumns + ` FROM tags WHERE id = ?`

// GetTagByID fetches a tag, with its current post count, by primary key.
func (q *Queries) GetTagByID(ctx context.Context, id int64) (model.Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTagByID, id))
}

const getTagBySlug = `SELECT ` + tagColumns + ` FROM tags WHERE slug = ?`

// GetTagBySlug fetches a tag, with its current post count, by slug.
func (q *Queries) GetTagBySlug(ctx context.Context, slug string) (model.Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTagBySlug, slug))
}

const getTagByName = `SELECT ` + tagColumns + ` FROM tags WHERE name = ?`

// GetTagByName fetches a tag by its display name.
func (q *Queries) GetTagByName(ctx context.Context, name string) (model.Tag, error) {
	return scanTag(q.db.QueryRowContext(ctx, getTagByName, name))
}

const listTags = `SELECT ` + tagColumns + ` FROM tags ORDER BY name`

// ListTags returns all tags with post counts, sorted by name.
func (q *Queries) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := q.db.QueryContext(ctx, listTags)
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

const updateTag = `
UPDATE tags SET name = ?, slug = ?, updated_at = ? WHERE id = ?
`

// UpdateTagParams holds the fields for UpdateTag.
type UpdateTagParams struct {
	Name      string
	Slug      string
	UpdatedAt time.Time
	ID        int64
}

// UpdateTag renames a tag.
func (q *Queries) UpdateTag(ctx context.Context, arg UpdateTagParams) error {
	_, err := q.db.ExecContext(ctx, updateTag, arg.Name, arg.Slug, arg.UpdatedAt, arg.ID)
	return err
}

const deleteTag = `DELETE FROM tags WHERE id = ?`

// DeleteTag removes a tag. Callers must verify the tag is unused first.
func (q *Queries) DeleteTag(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTag, id)
	return err
}

const countPostsForTag = `SELECT COUNT(*) FROM post_tags WHERE tag_id = ?`

// CountPostsForTag returns the number of posts linked to a tag.
func (q *Queries) CountPostsForTag(ctx context.Context, tagID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPostsForTag, tagID).Scan(&n)
	return n, err
}

func scanTag(row *sql.Row) (model.Tag, error) {
	var t model.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt, &t.PostCount)
	return t, err
}
