// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"inkpress/internal/middleware"
	"inkpress/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register handles POST /auth/register. New accounts always start as
// readers; roles are only raised by a super_admin afterwards.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type roleChangeRequest struct {
	Role   string `json:"role"`
	Reason string `json:"reason"`
}

// ChangeUserRole handles PUT /admin/users/{id}/role. Self-changes are
// rejected so the last super_admin cannot lock everyone out.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req roleChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.ChangeRole(r.Context(), actor, id, model.Role(req.Role), req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UserRoleHistory handles GET /admin/users/{id}/role-history.
func (h *Handler) UserRoleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if _, err := h.users.GetByID(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	history, err := h.users.RoleHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}
