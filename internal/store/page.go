// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"catree/internal/models"
	"catree/internal/tree"
)

// PageStore handles page rows and their category reference.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PageStore.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, title, slug, category_id, enabled, created_at, updated_at`

func scanPage(scanner interface{ Scan(...any) error }) (*models.Page, error) {
	var p models.Page
	err := scanner.Scan(&p.ID, &p.Title, &p.Slug, &p.CategoryID, &p.Enabled, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func queryPages(q querier, query string, args ...any) ([]*models.Page, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func listPages(q querier) ([]*models.Page, error) {
	items, err := queryPages(q, `SELECT `+pageColumns+` FROM pages ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return items, nil
}

// List returns every page ordered by title.
func (s *PageStore) List() ([]*models.Page, error) {
	return listPages(s.db)
}

// FindByID retrieves a page by ID. Returns nil if not found.
func (s *PageStore) FindByID(id uuid.UUID) (*models.Page, error) {
	p, err := scanPage(s.db.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by id: %w", err)
	}
	return p, nil
}

// FindPages returns the pages filed under a category.
func (s *PageStore) FindPages(categoryID uuid.UUID) ([]*models.Page, error) {
	items, err := queryPages(s.db, `SELECT `+pageColumns+`
		FROM pages WHERE category_id = $1 ORDER BY title, id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("find pages: %w", err)
	}
	return items, nil
}

// Save inserts or updates a page.
func (s *PageStore) Save(p *models.Page) error {
	return savePage(s.db, p)
}

func savePage(q querier, p *models.Page) error {
	if err := tree.BeforeSavePage(p); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	row := q.QueryRow(`
		INSERT INTO pages (id, title, slug, category_id, enabled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, slug = EXCLUDED.slug, category_id = EXCLUDED.category_id,
			enabled = EXCLUDED.enabled, updated_at = NOW()
		RETURNING `+pageColumns,
		p.ID, p.Title, p.Slug, p.CategoryID, p.Enabled, p.CreatedAt,
	)
	saved, err := scanPage(row)
	if err != nil {
		return fmt.Errorf("save page: %w", mapConstraint(err))
	}
	p.CreatedAt = saved.CreatedAt
	p.UpdatedAt = saved.UpdatedAt
	return nil
}

// Delete removes a page by ID.
func (s *PageStore) Delete(id uuid.UUID) error {
	if _, err := s.db.Exec(`DELETE FROM pages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
