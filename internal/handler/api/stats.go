// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import "net/http"

// GetStats handles GET /admin/stats: the dashboard counters.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ListEvents handles GET /admin/events: the audit trail, newest first,
// filtered by ?level= and ?category=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt64(r, "per_page", 50)
	page := queryInt64(r, "page", 1)
	if page < 1 {
		page = 1
	}

	events, total, err := h.events.List(r.Context(),
		r.URL.Query().Get("level"), r.URL.Query().Get("category"),
		limit, (page-1)*limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"total":  total,
		"page":   page,
	})
}
