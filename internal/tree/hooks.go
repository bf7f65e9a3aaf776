// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"catree/internal/models"
	"catree/internal/slug"
)

// deletedSuffix marks the name and slug of a tombstoned category.
const deletedSuffix = "deleted"

// BeforeSave runs before every insert and update of a category. It derives
// the slug from the name when none is set, then validates the record.
func BeforeSave(c *models.Category) error {
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = slug.Generate(c.Name)
	}
	if c.DeletedAt != nil {
		return nil
	}
	return Validate(c)
}

// BeforeSavePage derives a page slug from its title when none is set.
func BeforeSavePage(p *models.Page) error {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = slug.Generate(p.Title)
	}
	return ValidatePage(p)
}

// Deletion lists the records changed by BeforeDelete. The persistence layer
// saves Promoted and Detached before writing the tombstoned Category.
type Deletion struct {
	Category *models.Category
	Promoted []*models.Category
	Detached []*models.Page
}

// BeforeDelete runs before a category is deleted. Its children move up one
// level to the deleted category's parent, its pages are unfiled, and the
// category itself is tombstoned: disabled, detached, and renamed to
// "{name}-{id}-deleted" / "{slug}-{id}-deleted" so its slug becomes free.
func (t *Tree) BeforeDelete(id uuid.UUID) (*Deletion, error) {
	c, err := t.Active(id)
	if err != nil {
		return nil, err
	}
	d := &Deletion{Category: c}
	formerParent := c.ParentID

	// Children whose link was only half removed still point here.
	for _, other := range t.Categories() {
		pointsHere := other.ParentID != nil && *other.ParentID == id
		if other.ID == id || !(pointsHere || t.HasChild(id, other.ID)) {
			continue
		}
		unlink(t.children, id, other.ID)
		if !pointsHere {
			continue
		}
		other.ParentID = nil
		if formerParent != nil {
			if err := t.SetParent(other.ID, formerParent); err != nil {
				return nil, err
			}
		}
		d.Promoted = append(d.Promoted, other)
	}

	for _, p := range t.pagesReferencing(id) {
		if err := t.RemovePage(id, p.ID); err != nil {
			return nil, err
		}
		d.Detached = append(d.Detached, p)
	}

	t.detach(c)
	now := time.Now()
	marker := "-" + id.String() + "-" + deletedSuffix
	c.Enabled = false
	c.Name += marker
	c.Slug += marker
	c.DeletedAt = &now
	c.UpdatedAt = now
	return d, nil
}

// pagesReferencing returns pages filed under id or pointing at it.
func (t *Tree) pagesReferencing(id uuid.UUID) []*models.Page {
	var out []*models.Page
	for _, p := range t.pages {
		_, filed := t.filed[id][p.ID]
		if filed || (p.CategoryID != nil && *p.CategoryID == id) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
