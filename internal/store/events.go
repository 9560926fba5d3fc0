// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"inkpress/internal/model"
)

const createEvent = `
INSERT INTO events (level, category, type, message, success, user_id, ip_address, user_agent, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// CreateEvent appends an audit log entry.
func (q *Queries) CreateEvent(ctx context.Context, e model.Event) error {
	metadata := e.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx, createEvent,
		e.Level, e.Category, e.Type, e.Message, e.Success,
		e.UserID, e.IPAddress, e.UserAgent, metadata, e.CreatedAt)
	return err
}

// ListEventsParams filters and paginates ListEvents. Empty Level or
// Category means no filter.
type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

const listEvents = `
SELECT id, level, category, type, message, success, user_id, ip_address, user_agent, metadata, created_at
FROM events
WHERE (?1 = '' OR level = ?1)
  AND (?2 = '' OR category = ?2)
ORDER BY created_at DESC
LIMIT ?3 OFFSET ?4
`

// ListEvents returns audit log entries, newest first.
func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]model.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents,
		arg.Level, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Type, &e.Message, &e.Success,
			&e.UserID, &e.IPAddress, &e.UserAgent, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const countEvents = `
SELECT COUNT(*) FROM events
WHERE (?1 = '' OR level = ?1)
  AND (?2 = '' OR category = ?2)
`

// CountEvents returns the number of audit entries matching the filter.
func (q *Queries) CountEvents(ctx context.Context, arg ListEventsParams) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countEvents, arg.Level, arg.Category).Scan(&n)
	return n, err
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

// DeleteEventsBefore prunes audit entries older than cutoff and returns
// the number of rows removed. Called by the retention scheduler.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
