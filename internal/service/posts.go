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

	"inkpress/internal/markdown"
	"inkpress/internal/model"
	"inkpress/internal/store"
	"inkpress/internal/util"
)

// PostService implements the publication workflow.
type PostService struct {
	db      *sql.DB
	queries *store.Queries
	events  *EventService
}

// NewPostService creates a new PostService.
func NewPostService(db *sql.DB, events *EventService) *PostService {
	return &PostService{db: db, queries: store.New(db), events: events}
}

// PostView is a post plus derived presentation data.
type PostView struct {
	model.Post
	AuthorName  string      `json:"author_name"`
	Tags        []model.Tag `json:"tags"`
	ReadingTime int         `json:"reading_time"`
}

// PostInput holds the writable fields of a post. An empty Slug is
// derived from the title; an empty Excerpt is generated from content.
type PostInput struct {
	Title   string
	Slug    string
	Content string
	Excerpt string
	Status  string
	Tags    []string
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Content = strings.TrimSpace(in.Content)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Title)
	}
	if in.Status == "" {
		in.Status = model.PostStatusDraft
	}
	if in.Excerpt == "" && in.Content != "" {
		in.Excerpt = markdown.Excerpt(in.Content)
	}
}

func (in *PostInput) validate() error {
	fields := make(map[string]string)
	if in.Title == "" {
		fields["title"] = "Title is required"
	}
	if in.Content == "" {
		fields["content"] = "Content is required"
	}
	if in.Slug == "" {
		fields["slug"] = "Slug is required"
	} else if !util.IsValidSlug(in.Slug) {
		fields["slug"] = "Slug must contain only lowercase letters, numbers, and hyphens"
	}
	if !model.ValidPostStatus(in.Status) {
		fields["status"] = fmt.Sprintf("Status must be one of: %s, %s, %s",
			model.PostStatusDraft, model.PostStatusPublished, model.PostStatusArchived)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates and stores a new post. Publishing immediately
// stamps PublishedAt.
func (s *PostService) Create(ctx context.Context, authorID int64, in PostInput) (*PostView, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.queries.GetPostBySlug(ctx, in.Slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking slug: %w", err)
	}

	now := time.Now()
	var publishedAt model.NullTime
	if in.Status == model.PostStatusPublished {
		publishedAt = model.NullTimeFrom(now)
	}

	var view *PostView
	err := s.withTx(ctx, func(q *store.Queries) error {
		post, err := q.CreatePost(ctx, store.CreatePostParams{
			Title:       in.Title,
			Slug:        in.Slug,
			Content:     in.Content,
			Excerpt:     in.Excerpt,
			Status:      in.Status,
			AuthorID:    authorID,
			CreatedAt:   now,
			UpdatedAt:   now,
			PublishedAt: publishedAt,
		})
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}

		tags, err := s.linkTags(ctx, q, post.ID, in.Tags, now)
		if err != nil {
			return err
		}

		view = s.newView(post, tags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if author, err := s.queries.GetUserByID(ctx, authorID); err == nil {
		view.AuthorName = author.Name
	}

	s.events.Record(ctx, model.Event{
		Category:  model.EventCategoryPost,
		Type:      "post_created",
		Message:   fmt.Sprintf("post %q created", view.Slug),
		Success:   true,
		UserID:    model.NullInt64From(authorID),
		CreatedAt: now,
	})
	return view, nil
}

// PostUpdate holds a partial change to a post. Nil fields keep their
// current values. An explicit empty Slug or Excerpt is re-derived from
// the title and content, same as on create.
type PostUpdate struct {
	Title   *string
	Slug    *string
	Content *string
	Excerpt *string
	Status  *string
	Tags    *[]string
}

// apply merges the supplied fields over the current post row.
func (u PostUpdate) apply(current model.Post) PostInput {
	in := PostInput{
		Title:   current.Title,
		Slug:    current.Slug,
		Content: current.Content,
		Excerpt: current.Excerpt,
		Status:  current.Status,
	}
	if u.Title != nil {
		in.Title = *u.Title
	}
	if u.Slug != nil {
		in.Slug = *u.Slug
	}
	if u.Content != nil {
		in.Content = *u.Content
	}
	if u.Excerpt != nil {
		in.Excerpt = *u.Excerpt
	}
	if u.Status != nil {
		in.Status = *u.Status
	}
	if u.Tags != nil {
		in.Tags = *u.Tags
	}
	return in
}

// Update applies a partial change to an existing post; fields absent
// from upd keep their stored values. The first transition into
// published stamps PublishedAt; later transitions in and out of
// published leave the original stamp untouched.
func (s *PostService) Update(ctx context.Context, id int64, upd PostUpdate) (*PostView, error) {
	current, err := s.queries.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading post: %w", err)
	}

	in := upd.apply(current)
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.Slug != current.Slug {
		if other, err := s.queries.GetPostBySlug(ctx, in.Slug); err == nil && other.ID != id {
			return nil, ErrSlugTaken
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checking slug: %w", err)
		}
	}

	now := time.Now()
	publishedAt := current.PublishedAt
	if in.Status == model.PostStatusPublished && !publishedAt.Valid {
		publishedAt = model.NullTimeFrom(now)
	}

	var view *PostView
	err = s.withTx(ctx, func(q *store.Queries) error {
		post, err := q.UpdatePost(ctx, store.UpdatePostParams{
			Title:       in.Title,
			Slug:        in.Slug,
			Content:     in.Content,
			Excerpt:     in.Excerpt,
			Status:      in.Status,
			UpdatedAt:   now,
			PublishedAt: publishedAt,
			ID:          id,
		})
		if err != nil {
			return fmt.Errorf("updating post: %w", err)
		}

		// Tag links are replaced only when the request names tags;
		// an absent list leaves the existing links alone.
		var tags []model.Tag
		if upd.Tags != nil {
			if err := q.ClearPostTags(ctx, id); err != nil {
				return fmt.Errorf("clearing tags: %w", err)
			}
			tags, err = s.linkTags(ctx, q, id, in.Tags, now)
		} else {
			tags, err = q.ListTagsForPost(ctx, id)
		}
		if err != nil {
			return err
		}

		// Comments are keyed by slug; renaming the post must carry
		// its thread along.
		if in.Slug != current.Slug {
			if err := q.MoveCommentsToSlug(ctx, current.Slug, in.Slug); err != nil {
				return fmt.Errorf("moving comments: %w", err)
			}
		}

		view = s.newView(post, tags)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if author, err := s.queries.GetUserByID(ctx, current.AuthorID); err == nil {
		view.AuthorName = author.Name
	}
	return view, nil
}

// Delete removes a post together with its comments and tag links.
func (s *PostService) Delete(ctx context.Context, id int64) error {
	post, err := s.queries.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("loading post: %w", err)
	}

	err = s.withTx(ctx, func(q *store.Queries) error {
		if err := q.DeleteCommentsForPost(ctx, post.Slug); err != nil {
			return fmt.Errorf("deleting comments: %w", err)
		}
		if err := q.DeletePost(ctx, id); err != nil {
			return fmt.Errorf("deleting post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Record(ctx, model.Event{
		Category: model.EventCategoryPost,
		Type:     "post_deleted",
		Message:  fmt.Sprintf("post %q deleted", post.Slug),
		Success:  true,
	})
	return nil
}

// GetByID returns any post regardless of status. For admin use.
func (s *PostService) GetByID(ctx context.Context, id int64) (*PostView, error) {
	post, err := s.queries.GetPostByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading post: %w", err)
	}
	return s.attachTags(ctx, post)
}

// GetPublishedBySlug returns a post for public display. Drafts and
// archived posts are indistinguishable from missing ones.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*PostView, error) {
	post, err := s.queries.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading post: %w", err)
	}
	if !post.IsPublished() {
		return nil, ErrNotFound
	}
	return s.attachTags(ctx, post)
}

// GetBySlug returns a post by slug regardless of status. For admin use.
func (s *PostService) GetBySlug(ctx context.Context, slug string) (*PostView, error) {
	post, err := s.queries.GetPostBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading post: %w", err)
	}
	return s.attachTags(ctx, post)
}

// ListOptions filters post listings.
type ListOptions struct {
	Status   string
	AuthorID int64
	TagSlug  string
	Page     int64
	PerPage  int64
}

// List returns posts matching the options plus the total match count.
func (s *PostService) List(ctx context.Context, opts ListOptions) ([]*PostView, int64, error) {
	if opts.PerPage <= 0 || opts.PerPage > 100 {
		opts.PerPage = 20
	}
	if opts.Page < 1 {
		opts.Page = 1
	}

	arg := store.ListPostsParams{
		Status:   opts.Status,
		AuthorID: opts.AuthorID,
		TagSlug:  opts.TagSlug,
		Limit:    opts.PerPage,
		Offset:   (opts.Page - 1) * opts.PerPage,
	}

	posts, err := s.queries.ListPosts(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	total, err := s.queries.CountPosts(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	views := make([]*PostView, 0, len(posts))
	for _, post := range posts {
		view, err := s.attachTags(ctx, post)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, view)
	}
	return views, total, nil
}

// ListPublished returns published posts for the public listing.
func (s *PostService) ListPublished(ctx context.Context, tagSlug string, page, perPage int64) ([]*PostView, int64, error) {
	return s.List(ctx, ListOptions{
		Status:  model.PostStatusPublished,
		TagSlug: tagSlug,
		Page:    page,
		PerPage: perPage,
	})
}

// linkTags upserts tag rows by name and links them to the post.
func (s *PostService) linkTags(ctx context.Context, q *store.Queries, postID int64, names []string, now time.Time) ([]model.Tag, error) {
	var tags []model.Tag
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		slug := util.Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		tag, err := q.GetTagBySlug(ctx, slug)
		if errors.Is(err, sql.ErrNoRows) {
			tag, err = q.CreateTag(ctx, store.CreateTagParams{
				Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now,
			})
		}
		if err != nil {
			return nil, fmt.Errorf("upserting tag %q: %w", name, err)
		}

		if err := q.AddPostTag(ctx, postID, tag.ID); err != nil {
			return nil, fmt.Errorf("linking tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *PostService) attachTags(ctx context.Context, post model.Post) (*PostView, error) {
	tags, err := s.queries.ListTagsForPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	view := s.newView(post, tags)
	if author, err := s.queries.GetUserByID(ctx, post.AuthorID); err == nil {
		view.AuthorName = author.Name
	}
	return view, nil
}

func (s *PostService) newView(post model.Post, tags []model.Tag) *PostView {
	if tags == nil {
		tags = []model.Tag{}
	}
	return &PostView{
		Post:        post,
		Tags:        tags,
		ReadingTime: markdown.ReadingTime(post.Content),
	}
}

func (s *PostService) withTx(ctx context.Context, fn func(q *store.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
