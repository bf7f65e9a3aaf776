// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// change_log.go records tree mutations in the database for audit and
// debugging purposes. Each entry captures which node changed, when, and
// how (create/update/move/delete/file/unfile).
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Change actions recorded in the log.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionMove   = "move"
	ActionDelete = "delete"
	ActionFile   = "file"
	ActionUnfile = "unfile"
)

// ChangeLogStore handles tree change log operations.
type ChangeLogStore struct {
	db *sql.DB
}

// NewChangeLogStore creates a new ChangeLogStore.
func NewChangeLogStore(db *sql.DB) *ChangeLogStore {
	return &ChangeLogStore{db: db}
}

// Log records a change to a category or page.
func (s *ChangeLogStore) Log(entityType string, entityID uuid.UUID, action string) {
	_, err := s.db.Exec(`
		INSERT INTO category_change_log (entity_type, entity_id, action)
		VALUES ($1, $2, $3)
	`, entityType, entityID, action)
	if err != nil {
		// Log but don't fail.
		slog.Warn("failed to log tree change",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("tree change logged",
		"entity_type", entityType,
		"entity_id", entityID,
		"action", action,
	)
}

// RecentEntries returns the most recent changes, newest first, limited to
// the specified count.
func (s *ChangeLogStore) RecentEntries(limit int) ([]ChangeLogEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, entity_type, entity_id, action, changed_at
		FROM category_change_log
		ORDER BY changed_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query change log: %w", err)
	}
	defer rows.Close()

	var entries []ChangeLogEntry
	for rows.Next() {
		var e ChangeLogEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan change log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ChangeLogEntry represents a single recorded change.
type ChangeLogEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Action     string    `json:"action"`
	ChangedAt  time.Time `json:"changed_at"`
}
