// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/markdown"
	"inkpress/internal/middleware"
	"inkpress/internal/model"
	"inkpress/internal/policy"
	"inkpress/internal/service"
)

type postRequest struct {
	Title   string   `json:"title"`
	Slug    string   `json:"slug"`
	Content string   `json:"content"`
	Excerpt string   `json:"excerpt"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
}

func (req postRequest) toInput() service.PostInput {
	return service.PostInput{
		Title:   req.Title,
		Slug:    req.Slug,
		Content: req.Content,
		Excerpt: req.Excerpt,
		Status:  req.Status,
		Tags:    req.Tags,
	}
}

// postUpdateRequest distinguishes absent fields from empty ones, so a
// partial update never clobbers fields the client did not send.
type postUpdateRequest struct {
	Title   *string   `json:"title"`
	Slug    *string   `json:"slug"`
	Content *string   `json:"content"`
	Excerpt *string   `json:"excerpt"`
	Status  *string   `json:"status"`
	Tags    *[]string `json:"tags"`
}

func (req postUpdateRequest) toUpdate() service.PostUpdate {
	return service.PostUpdate{
		Title:   req.Title,
		Slug:    req.Slug,
		Content: req.Content,
		Excerpt: req.Excerpt,
		Status:  req.Status,
		Tags:    req.Tags,
	}
}

// ListPublishedPosts handles GET /posts. Only published posts appear,
// optionally filtered by ?tag= and paginated with ?page= and ?per_page=.
func (h *Handler) ListPublishedPosts(w http.ResponseWriter, r *http.Request) {
	page := queryInt64(r, "page", 1)
	perPage := queryInt64(r, "per_page", 20)
	tag := r.URL.Query().Get("tag")

	posts, total, err := h.posts.ListPublished(r.Context(), tag, page, perPage)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
		"page":  page,
	})
}

// GetPublishedPost handles GET /posts/{slug}. Drafts and archived posts
// are indistinguishable from missing ones. Single-post reads carry the
// sanitized rendered HTML alongside the raw markdown.
func (h *Handler) GetPublishedPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPublishedBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	html, err := markdown.Render(post.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*service.PostView
		HTML string `json:"html"`
	}{post, html})
}

// ListPosts handles GET /admin/posts with full status filtering.
// Authors below admin rank see only their own posts, whatever the
// author_id query says.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	opts := service.ListOptions{
		Status:   r.URL.Query().Get("status"),
		TagSlug:  r.URL.Query().Get("tag"),
		AuthorID: queryInt64(r, "author_id", 0),
		Page:     queryInt64(r, "page", 1),
		PerPage:  queryInt64(r, "per_page", 20),
	}
	if user != nil && !policy.HasRole(user.Role, model.RoleAdmin) {
		opts.AuthorID = user.ID
	}

	posts, total, err := h.posts.List(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
		"page":  opts.Page,
	})
}

// GetPost handles GET /admin/posts/{id} regardless of status. Authors
// may only read their own posts; admins may read any.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user := middleware.GetUser(r)
	if user == nil || !policy.CanReadPost(user.Role, user.ID, post.AuthorID) {
		writeError(w, http.StatusForbidden, "You can only view your own posts")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /admin/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	var req postRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Create(r.Context(), user.ID, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost handles PUT /admin/posts/{id}. Authors may only edit
// their own posts; admins may edit any.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	current, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !policy.CanEditPost(user.Role, user.ID, current.AuthorID) {
		writeError(w, http.StatusForbidden, "You can only edit your own posts")
		return
	}

	var req postUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.posts.Update(r.Context(), id, req.toUpdate())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /admin/posts/{id}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID")
		return
	}

	if err := h.posts.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Post deleted"})
}
