// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullTime is sql.NullTime with JSON null semantics: it marshals to the
// RFC 3339 time or to null, never to the driver struct shape.
type NullTime struct {
	sql.NullTime
}

// NullTimeFrom returns a valid NullTime for t.
func NullTimeFrom(t time.Time) NullTime {
	return NullTime{sql.NullTime{Time: t, Valid: true}}
}

// MarshalJSON implements json.Marshaler.
func (t NullTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *NullTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.NullTime = sql.NullTime{}
		return nil
	}
	if err := json.Unmarshal(data, &t.Time); err != nil {
		return err
	}
	t.Valid = true
	return nil
}

// NullString is sql.NullString with JSON null semantics.
type NullString struct {
	sql.NullString
}

// NullStringFrom returns a NullString that is valid only for non-empty s.
func NullStringFrom(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON implements json.Marshaler.
func (s NullString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.String)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.NullString = sql.NullString{}
		return nil
	}
	if err := json.Unmarshal(data, &s.String); err != nil {
		return err
	}
	s.Valid = true
	return nil
}

// NullInt64 is sql.NullInt64 with JSON null semantics.
type NullInt64 struct {
	sql.NullInt64
}

// NullInt64From returns a NullInt64 that is valid only for non-zero n.
func NullInt64From(n int64) NullInt64 {
	return NullInt64{sql.NullInt64{Int64: n, Valid: n != 0}}
}

// NullInt64FromPtr returns a NullInt64 that is valid only for non-nil ptr.
func NullInt64FromPtr(ptr *int64) NullInt64 {
	if ptr == nil {
		return NullInt64{}
	}
	return NullInt64{sql.NullInt64{Int64: *ptr, Valid: true}}
}

// MarshalJSON implements json.Marshaler.
func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullInt64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.NullInt64 = sql.NullInt64{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Int64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
