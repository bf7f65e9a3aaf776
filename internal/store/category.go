// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"catree/internal/models"
	"catree/internal/tree"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, slug, description, enabled, parent_id, created_at, updated_at, deleted_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.Enabled,
		&c.ParentID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// queryCategories runs a query returning category rows.
func queryCategories(q querier, query string, args ...any) ([]*models.Category, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// List returns all live categories ordered by name.
func (s *CategoryStore) List() ([]*models.Category, error) {
	items, err := queryCategories(s.db, `SELECT `+categoryColumns+`
		FROM categories WHERE deleted_at IS NULL ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

// FindByID retrieves a category by ID, tombstones included. Returns nil if not found.
func (s *CategoryStore) FindByID(id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a live category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(slug string) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT `+categoryColumns+`
		FROM categories WHERE slug = $1 AND deleted_at IS NULL`, slug)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// FindChildren returns the live categories whose parent is id.
func (s *CategoryStore) FindChildren(id uuid.UUID) ([]*models.Category, error) {
	items, err := queryCategories(s.db, `SELECT `+categoryColumns+`
		FROM categories WHERE parent_id = $1 AND deleted_at IS NULL ORDER BY name, id`, id)
	if err != nil {
		return nil, fmt.Errorf("find children: %w", err)
	}
	return items, nil
}

// Save inserts or updates a category after running the save hook.
// A nil ID is assigned before the insert.
func (s *CategoryStore) Save(c *models.Category) error {
	return saveCategory(s.db, c)
}

// saveCategory upserts c through q so it can run inside a transaction.
func saveCategory(q querier, c *models.Category) error {
	if err := tree.BeforeSave(c); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	row := q.QueryRow(`
		INSERT INTO categories (id, name, slug, description, enabled, parent_id, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
			enabled = EXCLUDED.enabled, parent_id = EXCLUDED.parent_id,
			deleted_at = EXCLUDED.deleted_at, updated_at = NOW()
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Slug, c.Description, c.Enabled, c.ParentID, c.CreatedAt, c.DeletedAt,
	)
	saved, err := scanCategory(row)
	if err != nil {
		return fmt.Errorf("save category: %w", mapConstraint(err))
	}
	c.CreatedAt = saved.CreatedAt
	c.UpdatedAt = saved.UpdatedAt
	return nil
}

// Delete tombstones a category inside one transaction. The tree's delete
// hook decides the new parents and unfiled pages; those rows are written
// before the tombstone itself. On error the tree may be ahead of the
// database and should be reloaded with LoadTree.
func (s *CategoryStore) Delete(t *tree.Tree, id uuid.UUID) error {
	d, err := t.BeforeDelete(id)
	if err != nil {
		return err
	}

	err = WithTx(s.db, func(tx *sql.Tx) error {
		for _, child := range d.Promoted {
			if err := saveCategory(tx, child); err != nil {
				return fmt.Errorf("promote child %s: %w", child.ID, err)
			}
		}
		for _, p := range d.Detached {
			if err := savePage(tx, p); err != nil {
				return fmt.Errorf("detach page %s: %w", p.ID, err)
			}
		}
		return saveCategory(tx, d.Category)
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	slog.Info("category deleted",
		"id", id,
		"promoted", len(d.Promoted),
		"detached_pages", len(d.Detached),
	)
	return nil
}

// Purge physically removes tombstones older than the cutoff.
func (s *CategoryStore) Purge(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM categories WHERE deleted_at IS NOT NULL AND deleted_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge categories: %w", err)
	}
	return res.RowsAffected()
}

// LoadTree reads every live category and page into a new tree and checks
// its invariants.
func (s *CategoryStore) LoadTree() (*tree.Tree, error) {
	cats, err := s.List()
	if err != nil {
		return nil, err
	}
	pages, err := listPages(s.db)
	if err != nil {
		return nil, err
	}

	t := tree.New()
	for _, c := range cats {
		if err := t.Insert(c); err != nil {
			return nil, fmt.Errorf("load tree: %w", err)
		}
	}
	for _, p := range pages {
		if err := t.InsertPage(p); err != nil {
			return nil, fmt.Errorf("load tree: %w", err)
		}
	}
	if err := t.Check(); err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	return t, nil
}
