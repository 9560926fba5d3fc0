// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkpress/internal/model"
	"inkpress/internal/store"
	"inkpress/internal/util"
)

// TagService manages the tag taxonomy. Tags are shared between posts,
// so deletion is only allowed once no post references the tag.
type TagService struct {
	queries *store.Queries
}

// NewTagService creates a new TagService.
func NewTagService(db *sql.DB) *TagService {
	return &TagService{queries: store.New(db)}
}

// List returns all tags with their current post counts.
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.queries.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	return tags, nil
}

// GetBySlug returns one tag.
func (s *TagService) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	tag, err := s.queries.GetTagBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading tag: %w", err)
	}
	return &tag, nil
}

// Create adds a tag. The slug is derived from the name; an existing
// name or slug is a conflict.
func (s *TagService) Create(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name is required"}}
	}

	slug := util.Slugify(name)
	if slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name must contain at least one letter or digit"}}
	}

	if _, err := s.queries.GetTagBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking tag slug: %w", err)
	}

	now := time.Now()
	tag, err := s.queries.CreateTag(ctx, store.CreateTagParams{
		Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}
	return &tag, nil
}

// Rename changes a tag's name, re-deriving the slug.
func (s *TagService) Rename(ctx context.Context, id int64, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name is required"}}
	}

	tag, err := s.queries.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading tag: %w", err)
	}

	slug := util.Slugify(name)
	if slug == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name must contain at least one letter or digit"}}
	}

	if slug != tag.Slug {
		if other, err := s.queries.GetTagBySlug(ctx, slug); err == nil && other.ID != id {
			return nil, ErrSlugTaken
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checking tag slug: %w", err)
		}
	}

	err = s.queries.UpdateTag(ctx, store.UpdateTagParams{
		Name: name, Slug: slug, UpdatedAt: time.Now(), ID: id,
	})
	if err != nil {
		return nil, fmt.Errorf("updating tag: %w", err)
	}

	updated, err := s.queries.GetTagByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading tag: %w", err)
	}
	return &updated, nil
}

// Delete removes a tag, but only when its post count is zero. A tag in
// use returns TagInUseError with the live count.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	if _, err := s.queries.GetTagByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("loading tag: %w", err)
	}

	// The count is re-read at delete time, not trusted from the client.
	count, err := s.queries.CountPostsForTag(ctx, id)
	if err != nil {
		return fmt.Errorf("counting tag posts: %w", err)
	}
	if count > 0 {
		return &TagInUseError{Count: count}
	}

	if err := s.queries.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}
	return nil
}
