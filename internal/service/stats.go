// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"inkpress/internal/model"
	"inkpress/internal/store"
)

// Stats summarizes the site for the admin dashboard.
type Stats struct {
	PostsTotal      int64 `json:"posts_total"`
	PostsPublished  int64 `json:"posts_published"`
	PostsDraft      int64 `json:"posts_draft"`
	CommentsTotal   int64 `json:"comments_total"`
	CommentsPending int64 `json:"comments_pending"`
	TagsTotal       int64 `json:"tags_total"`
}

// StatsService aggregates dashboard counters.
type StatsService struct {
	queries *store.Queries
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{queries: store.New(db)}
}

// Summary returns the current site counters.
func (s *StatsService) Summary(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var err error
	if stats.PostsTotal, err = s.queries.CountPosts(ctx, store.ListPostsParams{}); err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	if stats.PostsPublished, err = s.queries.CountPosts(ctx, store.ListPostsParams{Status: model.PostStatusPublished}); err != nil {
		return nil, fmt.Errorf("counting published posts: %w", err)
	}
	if stats.PostsDraft, err = s.queries.CountPosts(ctx, store.ListPostsParams{Status: model.PostStatusDraft}); err != nil {
		return nil, fmt.Errorf("counting draft posts: %w", err)
	}
	if stats.CommentsTotal, err = s.queries.CountComments(ctx, store.ListCommentsParams{}); err != nil {
		return nil, fmt.Errorf("counting comments: %w", err)
	}
	if stats.CommentsPending, err = s.queries.CountComments(ctx, store.ListCommentsParams{Status: model.CommentStatusPending}); err != nil {
		return nil, fmt.Errorf("counting pending comments: %w", err)
	}

	tags, err := s.queries.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	stats.TagsTotal = int64(len(tags))

	return stats, nil
}
