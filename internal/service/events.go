// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the business rules on top of the store:
// publication workflow, comment moderation, tag lifecycle, role
// management and the audit trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"inkpress/internal/model"
	"inkpress/internal/store"
)

// EventService writes the audit trail. All writes are best-effort: a
// failed insert is logged and swallowed, never propagated to the
// operation that produced the event.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{queries: store.New(db)}
}

// Record writes one audit event.
func (s *EventService) Record(ctx context.Context, e model.Event) {
	if e.Level == "" {
		e.Level = model.EventLevelInfo
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if err := s.queries.CreateEvent(ctx, e); err != nil {
		slog.Error("failed to write audit event",
			"event_category", e.Category, "event_type", e.Type, "error", err)
	}
}

// RecordAuth writes an authentication event (login, failed_login, logout).
func (s *EventService) RecordAuth(ctx context.Context, eventType, message string, success bool, userID *int64, ip, userAgent string, metadata map[string]any) {
	level := model.EventLevelInfo
	if !success {
		level = model.EventLevelWarning
	}

	s.Record(ctx, model.Event{
		Level:     level,
		Category:  model.EventCategoryAuth,
		Type:      eventType,
		Message:   message,
		Success:   success,
		UserID:    model.NullInt64FromPtr(userID),
		IPAddress: ip,
		UserAgent: userAgent,
		Metadata:  metadataJSON(metadata),
	})
}

// List returns audit entries, newest first.
func (s *EventService) List(ctx context.Context, level, category string, limit, offset int64) ([]model.Event, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	arg := store.ListEventsParams{Level: level, Category: category, Limit: limit, Offset: offset}
	events, err := s.queries.ListEvents(ctx, arg)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.queries.CountEvents(ctx, arg)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Prune deletes audit entries older than the retention window.
func (s *EventService) Prune(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}

func metadataJSON(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "{}"
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(b)
}
