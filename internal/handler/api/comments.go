// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/middleware"
	"inkpress/internal/model"
	"inkpress/internal/service"
	"inkpress/internal/util"
)

type commentRequest struct {
	PostSlug   string `json:"postSlug"`
	AuthorName string `json:"authorName"`
	Email      string `json:"email"`
	Content    string `json:"content"`
	ParentID   string `json:"parentId"`
}

// publicComment is the public projection of a comment. Email and IP
// are moderation-only and never appear here.
type publicComment struct {
	ID         string          `json:"id"`
	AuthorName string          `json:"authorName"`
	Content    string          `json:"content"`
	CreatedAt  time.Time       `json:"createdAt"`
	ParentID   *string         `json:"parentId"`
	Replies    []publicComment `json:"replies,omitempty"`
}

func toPublicComment(c model.Comment) publicComment {
	out := publicComment{
		ID:         c.ID,
		AuthorName: c.AuthorName,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
	if c.ParentID.Valid {
		id := c.ParentID.String
		out.ParentID = &id
	}
	return out
}

// SubmitComment handles POST /comments. Anyone may comment; the new
// comment always enters the moderation queue as pending.
func (h *Handler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.comments.Submit(r.Context(), service.CommentInput{
		PostSlug:    req.PostSlug,
		AuthorName:  req.AuthorName,
		AuthorEmail: req.Email,
		Content:     req.Content,
		ParentID:    req.ParentID,
		IPAddress:   util.ClientIP(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{
		"message":   "Comment submitted and awaiting moderation",
		"commentId": comment.ID,
	})
}

// ListComments handles GET /comments/{postSlug}: the approved comments
// of a post as one-level threads, oldest first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	threads, count, err := h.comments.ListApproved(r.Context(), chi.URLParam(r, "postSlug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	comments := make([]publicComment, 0, len(threads))
	for _, thread := range threads {
		c := toPublicComment(thread.Comment)
		c.Replies = make([]publicComment, 0, len(thread.Replies))
		for _, reply := range thread.Replies {
			c.Replies = append(c.Replies, toPublicComment(reply))
		}
		comments = append(comments, c)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"count":    count,
	})
}

// ListCommentsForModeration handles GET /admin/comments with full
// commenter details, filtered by ?status= and paginated.
func (h *Handler) ListCommentsForModeration(w http.ResponseWriter, r *http.Request) {
	limit := queryInt64(r, "per_page", 50)
	page := queryInt64(r, "page", 1)
	if page < 1 {
		page = 1
	}

	comments, total, err := h.comments.ListForModeration(r.Context(),
		r.URL.Query().Get("status"), limit, (page-1)*limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"comments": comments,
		"total":    total,
		"page":     page,
	})
}

type moderationRequest struct {
	Action string `json:"action"`
}

// ModerateComment handles PUT /admin/comments/{id} with an action of
// approve or reject.
func (h *Handler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	var req moderationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)
	id := chi.URLParam(r, "id")

	if err := h.comments.Moderate(r.Context(), id, req.Action, user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	message := "Comment approved"
	if req.Action == model.ModerationReject {
		message = "Comment rejected"
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": message})
}

// DeleteComment handles DELETE /admin/comments/{id}. Deletion is
// permanent and takes direct replies with it.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Comment deleted"})
}

type bulkModerationRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}

// BulkModerateComments handles POST /admin/comments/bulk: one action
// applied atomically to up to 50 comments.
func (h *Handler) BulkModerateComments(w http.ResponseWriter, r *http.Request) {
	var req bulkModerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.GetUser(r)

	count, err := h.comments.ModerateBulk(r.Context(), req.IDs, req.Action, user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "Bulk moderation applied",
		"count":   count,
	})
}
