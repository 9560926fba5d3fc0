// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"inkpress/internal/model"
	"inkpress/internal/ratelimit"
	"inkpress/internal/store"
)

// Comment validation bounds.
const (
	nameMinLength    = 2
	nameMaxLength    = 100
	contentMinLength = 10
	contentMaxLength = 2000

	// BulkModerationMax caps the number of ids one bulk request may target.
	BulkModerationMax = 50
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// stripPolicy removes every HTML tag from comment content. Comments
// are plain text; markdown is not rendered for them.
var stripPolicy = bluemonday.StrictPolicy()

// CommentService handles public submission and super_admin moderation.
type CommentService struct {
	db      *sql.DB
	queries *store.Queries
	limiter ratelimit.Limiter
	events  *EventService
}

// NewCommentService creates a new CommentService. The limiter is keyed
// by normalized commenter email.
func NewCommentService(db *sql.DB, limiter ratelimit.Limiter, events *EventService) *CommentService {
	return &CommentService{
		db:      db,
		queries: store.New(db),
		limiter: limiter,
		events:  events,
	}
}

// CommentInput holds a public comment submission.
type CommentInput struct {
	PostSlug    string
	AuthorName  string
	AuthorEmail string
	Content     string
	ParentID    string
	IPAddress   string
}

// Submit validates, rate-limits and stores a comment. New comments
// always start pending regardless of who submits them. Validation
// reports every broken field at once.
func (s *CommentService) Submit(ctx context.Context, in CommentInput) (*model.Comment, error) {
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.AuthorEmail = strings.ToLower(strings.TrimSpace(in.AuthorEmail))
	in.PostSlug = strings.TrimSpace(in.PostSlug)
	in.ParentID = strings.TrimSpace(in.ParentID)

	// Strip tags, then decode entities so "&amp;" round-trips to "&".
	in.Content = strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(in.Content)))

	fields := make(map[string]string)

	if in.PostSlug == "" {
		fields["postSlug"] = "Post slug is required"
	}

	switch {
	case in.AuthorName == "":
		fields["authorName"] = "Name is required"
	case len([]rune(in.AuthorName)) < nameMinLength:
		fields["authorName"] = fmt.Sprintf("Name must be at least %d characters", nameMinLength)
	case len([]rune(in.AuthorName)) > nameMaxLength:
		fields["authorName"] = fmt.Sprintf("Name must not exceed %d characters", nameMaxLength)
	}

	switch {
	case in.AuthorEmail == "":
		fields["authorEmail"] = "Email is required"
	case !emailRegex.MatchString(in.AuthorEmail):
		fields["authorEmail"] = "Valid email is required"
	}

	switch {
	case in.Content == "":
		fields["content"] = "Comment is required"
	case len([]rune(in.Content)) < contentMinLength:
		fields["content"] = fmt.Sprintf("Comment must be at least %d characters", contentMinLength)
	case len([]rune(in.Content)) > contentMaxLength:
		fields["content"] = fmt.Sprintf("Comment must not exceed %d characters", contentMaxLength)
	}

	if in.PostSlug != "" {
		post, err := s.queries.GetPostBySlug(ctx, in.PostSlug)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && !post.IsPublished()) {
			fields["postSlug"] = "Post not found"
		} else if err != nil {
			return nil, fmt.Errorf("checking post: %w", err)
		}
	}

	var parentID model.NullString
	if in.ParentID != "" {
		parent, err := s.queries.GetCommentByID(ctx, in.ParentID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			fields["parentId"] = "Parent comment not found"
		case err != nil:
			return nil, fmt.Errorf("checking parent comment: %w", err)
		case parent.PostSlug != in.PostSlug:
			fields["parentId"] = "Parent comment belongs to a different post"
		case parent.ParentID.Valid:
			// One level of nesting only; replies to replies are rejected.
			fields["parentId"] = "Cannot reply to a reply"
		default:
			parentID = model.NullStringFrom(parent.ID)
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	res, err := s.limiter.Allow(ctx, in.AuthorEmail)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !res.Allowed {
		return nil, &RateLimitError{RetryAfter: res.RetryAfter}
	}

	comment, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		ID:          uuid.NewString(),
		PostSlug:    in.PostSlug,
		ParentID:    parentID,
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		Content:     in.Content,
		Status:      model.CommentStatusPending,
		IPAddress:   model.NullStringFrom(in.IPAddress),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.events.Record(ctx, model.Event{
		Category:  model.EventCategoryComment,
		Type:      "comment_submitted",
		Message:   fmt.Sprintf("comment submitted on %q", in.PostSlug),
		Success:   true,
		IPAddress: in.IPAddress,
	})
	return &comment, nil
}

// CommentThread is a top-level comment with its direct replies.
type CommentThread struct {
	model.Comment
	Replies []model.Comment `json:"replies"`
}

// ListApproved returns the approved comments of a post as one-level
// threads, oldest first. Email and IP never leave the service here.
func (s *CommentService) ListApproved(ctx context.Context, postSlug string) ([]*CommentThread, int, error) {
	comments, err := s.queries.ListApprovedCommentsForPost(ctx, postSlug)
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}

	threads := make([]*CommentThread, 0)
	byID := make(map[string]*CommentThread)
	for _, c := range comments {
		c := scrub(c)
		if !c.ParentID.Valid {
			thread := &CommentThread{Comment: c, Replies: []model.Comment{}}
			threads = append(threads, thread)
			byID[c.ID] = thread
		}
	}
	for _, c := range comments {
		if c.ParentID.Valid {
			if parent, ok := byID[c.ParentID.String]; ok {
				parent.Replies = append(parent.Replies, scrub(c))
			}
		}
	}
	return threads, len(comments), nil
}

// ListForModeration returns comments with full details for the
// moderation queue.
func (s *CommentService) ListForModeration(ctx context.Context, status string, limit, offset int64) ([]model.Comment, int64, error) {
	if status != "" && status != model.CommentStatusPending &&
		status != model.CommentStatusApproved && status != model.CommentStatusRejected {
		return nil, 0, &ValidationError{Fields: map[string]string{"status": "Unknown status"}}
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	arg := store.ListCommentsParams{Status: status, Limit: limit, Offset: offset}
	comments, err := s.queries.ListComments(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}
	total, err := s.queries.CountComments(ctx, arg)
	if err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}
	return comments, total, nil
}

// Moderate applies approve or reject to one comment. Re-applying the
// current status is a no-op success.
func (s *CommentService) Moderate(ctx context.Context, id, action string, actorID int64) error {
	status, err := statusForAction(action)
	if err != nil {
		return err
	}

	comment, err := s.queries.GetCommentByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("loading comment: %w", err)
	}

	if comment.Status != status {
		if err := s.queries.UpdateCommentStatus(ctx, id, status); err != nil {
			return fmt.Errorf("updating comment status: %w", err)
		}
	}

	s.recordModeration(ctx, action, 1, actorID)
	return nil
}

// Delete permanently removes a comment and its replies.
func (s *CommentService) Delete(ctx context.Context, id string, actorID int64) error {
	if _, err := s.queries.GetCommentByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("loading comment: %w", err)
	}
	if err := s.queries.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	s.recordModeration(ctx, model.ModerationDelete, 1, actorID)
	return nil
}

// ModerateBulk applies one action to up to BulkModerationMax comments
// atomically: any missing id rolls the whole batch back. The returned
// count is the number of targeted ids, including no-op transitions.
func (s *CommentService) ModerateBulk(ctx context.Context, ids []string, action string, actorID int64) (int, error) {
	if len(ids) == 0 {
		return 0, &ValidationError{Fields: map[string]string{"ids": "At least one comment id is required"}}
	}
	if len(ids) > BulkModerationMax {
		return 0, &ValidationError{Fields: map[string]string{
			"ids": fmt.Sprintf("Cannot moderate more than %d comments at once", BulkModerationMax),
		}}
	}
	if !model.ValidModerationAction(action) {
		return 0, &ValidationError{Fields: map[string]string{"action": "Unknown action"}}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	for _, id := range ids {
		comment, err := q.GetCommentByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("loading comment %s: %w", id, err)
		}

		if action == model.ModerationDelete {
			if err := q.DeleteComment(ctx, id); err != nil {
				return 0, fmt.Errorf("deleting comment %s: %w", id, err)
			}
			continue
		}

		status, err := statusForAction(action)
		if err != nil {
			return 0, err
		}
		if comment.Status == status {
			continue
		}
		if err := q.UpdateCommentStatus(ctx, id, status); err != nil {
			return 0, fmt.Errorf("updating comment %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	s.recordModeration(ctx, action, len(ids), actorID)
	return len(ids), nil
}

func (s *CommentService) recordModeration(ctx context.Context, action string, count int, actorID int64) {
	s.events.Record(ctx, model.Event{
		Category: model.EventCategoryComment,
		Type:     "comment_" + action,
		Message:  fmt.Sprintf("moderation action %q applied to %d comment(s)", action, count),
		Success:  true,
		UserID:   model.NullInt64From(actorID),
	})
}

func statusForAction(action string) (string, error) {
	switch action {
	case model.ModerationApprove:
		return model.CommentStatusApproved, nil
	case model.ModerationReject:
		return model.CommentStatusRejected, nil
	default:
		return "", &ValidationError{Fields: map[string]string{"action": "Unknown action"}}
	}
}

// scrub blanks moderation-only fields before public display.
func scrub(c model.Comment) model.Comment {
	c.AuthorEmail = ""
	c.IPAddress = model.NullString{}
	return c
}
