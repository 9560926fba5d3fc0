// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API handlers: the public blog surface
// and the admin surface for posts, comments, tags and users.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"inkpress/internal/geoip"
	"inkpress/internal/service"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	posts    *service.PostService
	comments *service.CommentService
	tags     *service.TagService
	users    *service.UserService
	events   *service.EventService
	stats    *service.StatsService
	sessions *scs.SessionManager
	geo      *geoip.Resolver
}

// NewHandler creates a new API handler.
func NewHandler(
	posts *service.PostService,
	comments *service.CommentService,
	tags *service.TagService,
	users *service.UserService,
	events *service.EventService,
	stats *service.StatsService,
	sessions *scs.SessionManager,
	geo *geoip.Resolver,
) *Handler {
	return &Handler{
		posts:    posts,
		comments: comments,
		tags:     tags,
		users:    users,
		events:   events,
		stats:    stats,
		sessions: sessions,
		geo:      geo,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a success envelope, merging extra fields in.
func writeSuccess(w http.ResponseWriter, statusCode int, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, statusCode, data)
}

// writeError writes an error envelope with a human-readable message.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"success": false,
		"error":   message,
	})
}

// writeValidationError writes a 400 with the full field error map.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   "Validation failed",
		"fields":  fields,
	})
}

// writeServiceError maps service errors onto the HTTP taxonomy.
// Unrecognized errors become a generic 500 with no internal detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	var rlerr *service.RateLimitError
	var inUse *service.TagInUseError

	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr.Fields)
	case errors.As(err, &rlerr):
		w.Header().Set("Retry-After", strconv.Itoa(int(rlerr.RetryAfter.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	case errors.As(err, &inUse):
		writeError(w, http.StatusConflict, inUse.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrSlugTaken):
		writeError(w, http.StatusConflict, "Slug already in use")
	case errors.Is(err, service.ErrSelfRoleChange):
		writeError(w, http.StatusBadRequest, "You cannot change your own role")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Insufficient permissions")
	default:
		slog.Error("internal error",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON decodes a request body, rejecting unknown garbage early.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// queryInt64 parses an integer query parameter with a fallback.
func queryInt64(r *http.Request, key string, fallback int64) int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// pathID parses the numeric {id} route parameter.
func pathID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
