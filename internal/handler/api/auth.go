// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"inkpress/internal/middleware"
	"inkpress/internal/model"
	"inkpress/internal/util"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionInfo struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// Login authenticates a user and establishes a session. Both the
// success and the failure are recorded in the audit log; a failed
// audit write never fails the login itself.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ip := util.ClientIP(r)
	ua := r.UserAgent()

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.events.RecordAuth(r.Context(), model.EventTypeFailedLogin,
			"failed login attempt", false, nil, ip, ua, h.authMetadata(ip, ua))
		writeServiceError(w, r, err)
		return
	}

	// Rotate the session token on privilege change.
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.sessions.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	h.events.RecordAuth(r.Context(), model.EventTypeLogin,
		"user logged in", true, &user.ID, ip, ua, h.authMetadata(ip, ua))

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"session": sessionInfo{ExpiresAt: time.Now().Add(h.sessions.Lifetime)},
	})
}

// Logout destroys the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	if err := h.sessions.Destroy(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if user != nil {
		ip := util.ClientIP(r)
		ua := r.UserAgent()
		h.events.RecordAuth(r.Context(), model.EventTypeLogout,
			"user logged out", true, &user.ID, ip, ua, h.authMetadata(ip, ua))
	}

	writeSuccess(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// Session reports the current authentication state.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"authenticated": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
		"session":       sessionInfo{ExpiresAt: h.sessions.Deadline(r.Context())},
	})
}

// authMetadata enriches auth events with parsed user agent details and
// a GeoIP country when a database is loaded.
func (h *Handler) authMetadata(ip, rawUA string) map[string]any {
	metadata := make(map[string]any)

	if rawUA != "" {
		ua := useragent.Parse(rawUA)
		metadata["browser"] = ua.Name
		metadata["browser_version"] = ua.Version
		metadata["os"] = ua.OS
		if ua.Bot {
			metadata["bot"] = true
		}
	}

	if h.geo != nil {
		if country := h.geo.Country(ip); country != "" {
			metadata["country"] = country
		}
	}

	return metadata
}
