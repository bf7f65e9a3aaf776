package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"catree/internal/slug"
)

// seedCategory is one node of the development sample tree.
type seedCategory struct {
	name     string
	children []seedCategory
}

var sampleTree = []seedCategory{
	{name: "News", children: []seedCategory{
		{name: "Local"},
		{name: "World", children: []seedCategory{{name: "Europe"}, {name: "Asia"}}},
	}},
	{name: "Guides", children: []seedCategory{
		{name: "Getting Started"},
	}},
}

// Seed populates the database with a small category tree for development.
// It is a no-op when any category already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	inserted, err := seedLevel(tx, sampleTree, nil)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample categories", "count", inserted)
	return nil
}

func seedLevel(tx *sql.Tx, nodes []seedCategory, parentID *uuid.UUID) (int, error) {
	inserted := 0
	for _, n := range nodes {
		id := uuid.New()
		_, err := tx.Exec(`
			INSERT INTO categories (id, name, slug, enabled, parent_id)
			VALUES ($1, $2, $3, $4, $5)
		`, id, n.name, slug.Generate(n.name), true, parentID)
		if err != nil {
			return inserted, fmt.Errorf("seed insert category %q: %w", n.name, err)
		}
		inserted++

		below, err := seedLevel(tx, n.children, &id)
		inserted += below
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
