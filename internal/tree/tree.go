// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree maintains the category hierarchy: parent/child links,
// category/page filing, slug paths and the save/delete lifecycle hooks.
//
// Categories and pages live in an arena keyed by identifier. A category
// owns its parent back-reference (ParentID); the arena owns the children
// and pages sets. Relational fields must only be changed through Tree
// methods, otherwise the two sides drift apart.
//
// A Tree is not safe for concurrent use.
package tree

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"catree/internal/models"
)

// Tree is an in-memory arena of categories and pages.
type Tree struct {
	categories map[uuid.UUID]*models.Category
	pages      map[uuid.UUID]*models.Page

	children map[uuid.UUID]map[uuid.UUID]struct{} // category -> child categories
	filed    map[uuid.UUID]map[uuid.UUID]struct{} // category -> pages
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{
		categories: make(map[uuid.UUID]*models.Category),
		pages:      make(map[uuid.UUID]*models.Page),
		children:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
		filed:      make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Insert registers a category. A nil ID is replaced with a fresh one.
// Existing back-references are honored in both directions, so categories
// and pages may be inserted in any order.
func (t *Tree) Insert(c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, ok := t.categories[c.ID]; ok {
		return fmt.Errorf("insert category %s: %w", c.ID, ErrDuplicate)
	}
	if c.Slug != "" && c.DeletedAt == nil {
		if other := t.BySlug(c.Slug); other != nil {
			return &ValidationError{Field: "slug", Err: ErrSlugTaken}
		}
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		c.ParentID = nil
	}

	t.categories[c.ID] = c
	if c.ParentID != nil {
		if _, ok := t.categories[*c.ParentID]; ok {
			link(t.children, *c.ParentID, c.ID)
		}
	}
	for _, other := range t.categories {
		if other.ParentID != nil && *other.ParentID == c.ID && other.ID != c.ID {
			link(t.children, c.ID, other.ID)
		}
	}
	for _, p := range t.pages {
		if p.CategoryID != nil && *p.CategoryID == c.ID {
			link(t.filed, c.ID, p.ID)
		}
	}
	return nil
}

// InsertPage registers a page, filing it under its category when present.
func (t *Tree) InsertPage(p *models.Page) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if _, ok := t.pages[p.ID]; ok {
		return fmt.Errorf("insert page %s: %w", p.ID, ErrDuplicate)
	}
	t.pages[p.ID] = p
	if p.CategoryID != nil {
		if _, ok := t.categories[*p.CategoryID]; ok {
			link(t.filed, *p.CategoryID, p.ID)
		}
	}
	return nil
}

// Get returns the category with the given ID.
func (t *Tree) Get(id uuid.UUID) (*models.Category, error) {
	c, ok := t.categories[id]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// Page returns the page with the given ID.
func (t *Tree) Page(id uuid.UUID) (*models.Page, error) {
	p, ok := t.pages[id]
	if !ok {
		return nil, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return p, nil
}

// BySlug returns the active category with the given slug, or nil.
func (t *Tree) BySlug(s string) *models.Category {
	for _, c := range t.categories {
		if c.Slug == s && c.DeletedAt == nil {
			return c
		}
	}
	return nil
}

// Parent returns the category's parent, or nil for a root.
func (t *Tree) Parent(id uuid.UUID) (*models.Category, error) {
	c, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if c.ParentID == nil {
		return nil, nil
	}
	return t.categories[*c.ParentID], nil
}

// Children returns the categories in id's children set, sorted by name.
func (t *Tree) Children(id uuid.UUID) ([]*models.Category, error) {
	if _, err := t.Get(id); err != nil {
		return nil, err
	}
	out := make([]*models.Category, 0, len(t.children[id]))
	for cid := range t.children[id] {
		out = append(out, t.categories[cid])
	}
	sortCategories(out)
	return out, nil
}

// HasChild reports whether child is in parent's children set.
func (t *Tree) HasChild(parentID, childID uuid.UUID) bool {
	_, ok := t.children[parentID][childID]
	return ok
}

// Pages returns the pages filed under a category, sorted by title.
func (t *Tree) Pages(id uuid.UUID) ([]*models.Page, error) {
	if _, err := t.Get(id); err != nil {
		return nil, err
	}
	out := make([]*models.Page, 0, len(t.filed[id]))
	for pid := range t.filed[id] {
		out = append(out, t.pages[pid])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// Roots returns the active categories without a known parent, sorted by name.
func (t *Tree) Roots() []*models.Category {
	var out []*models.Category
	for _, c := range t.categories {
		if c.DeletedAt != nil {
			continue
		}
		if c.ParentID == nil {
			out = append(out, c)
			continue
		}
		if _, ok := t.categories[*c.ParentID]; !ok {
			out = append(out, c)
		}
	}
	sortCategories(out)
	return out
}

// Ancestors returns the parent chain of id, nearest first.
func (t *Tree) Ancestors(id uuid.UUID) ([]*models.Category, error) {
	c, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	var out []*models.Category
	seen := map[uuid.UUID]bool{id: true}
	for c.ParentID != nil {
		p, ok := t.categories[*c.ParentID]
		if !ok {
			break
		}
		if seen[p.ID] {
			return nil, &InvariantViolation{Op: "ancestors", ID: id, Err: ErrCycle}
		}
		seen[p.ID] = true
		out = append(out, p)
		c = p
	}
	return out, nil
}

// Descendants returns every category below id in breadth-first order.
func (t *Tree) Descendants(id uuid.UUID) ([]*models.Category, error) {
	if _, err := t.Get(id); err != nil {
		return nil, err
	}
	var out []*models.Category
	seen := map[uuid.UUID]bool{id: true}
	queue := []uuid.UUID{id}
	for len(queue) > 0 {
		kids, _ := t.Children(queue[0])
		queue = queue[1:]
		for _, k := range kids {
			if seen[k.ID] {
				return nil, &InvariantViolation{Op: "descendants", ID: id, Err: ErrCycle}
			}
			seen[k.ID] = true
			out = append(out, k)
			queue = append(queue, k.ID)
		}
	}
	return out, nil
}

// Len returns the number of categories in the arena, tombstones included.
func (t *Tree) Len() int {
	return len(t.categories)
}

// Categories returns every category, tombstones included, sorted by name.
func (t *Tree) Categories() []*models.Category {
	out := make([]*models.Category, 0, len(t.categories))
	for _, c := range t.categories {
		out = append(out, c)
	}
	sortCategories(out)
	return out
}

func link(sets map[uuid.UUID]map[uuid.UUID]struct{}, owner, member uuid.UUID) {
	set, ok := sets[owner]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		sets[owner] = set
	}
	set[member] = struct{}{}
}

func unlink(sets map[uuid.UUID]map[uuid.UUID]struct{}, owner, member uuid.UUID) {
	set, ok := sets[owner]
	if !ok {
		return
	}
	delete(set, member)
	if len(set) == 0 {
		delete(sets, owner)
	}
}

func sortCategories(cs []*models.Category) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Name != cs[j].Name {
			return cs[i].Name < cs[j].Name
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}
