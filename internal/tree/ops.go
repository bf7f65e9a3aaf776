// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"fmt"

	"github.com/google/uuid"

	"catree/internal/models"
)

// Active returns the category if it exists and has not been tombstoned.
func (t *Tree) Active(id uuid.UUID) (*models.Category, error) {
	c, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if c.DeletedAt != nil {
		return nil, fmt.Errorf("category %s: %w", id, ErrDeleted)
	}
	return c, nil
}

// SetParent moves a category under parentID, or detaches it when parentID
// is nil. A category named as its own parent is detached instead: a
// category cannot contain itself. Choosing one of the category's own
// descendants fails with ErrCycle and changes nothing.
func (t *Tree) SetParent(id uuid.UUID, parentID *uuid.UUID) error {
	c, err := t.Active(id)
	if err != nil {
		return err
	}
	if parentID == nil || *parentID == id {
		t.detach(c)
		return nil
	}

	p, err := t.Active(*parentID)
	if err != nil {
		return err
	}
	if t.isAncestor(id, p.ID) {
		return &InvariantViolation{Op: "set parent", ID: id, Err: ErrCycle}
	}

	if c.ParentID != nil && *c.ParentID != p.ID {
		unlink(t.children, *c.ParentID, id)
	}
	pid := p.ID
	c.ParentID = &pid

	if !t.HasChild(p.ID, id) {
		return t.AddChild(p.ID, id)
	}
	return nil
}

// AddChild puts child into id's children set and points the child's parent
// at id. Adding a category to itself detaches it, as SetParent does.
func (t *Tree) AddChild(id, childID uuid.UUID) error {
	if id == childID {
		return t.SetParent(childID, &id)
	}
	if _, err := t.Active(id); err != nil {
		return err
	}
	child, err := t.Active(childID)
	if err != nil {
		return err
	}
	if t.isAncestor(childID, id) {
		return &InvariantViolation{Op: "add child", ID: childID, Err: ErrCycle}
	}

	if child.ParentID != nil && *child.ParentID != id {
		unlink(t.children, *child.ParentID, childID)
	}
	link(t.children, id, childID)

	if child.ParentID == nil || *child.ParentID != id {
		return t.SetParent(childID, &id)
	}
	return nil
}

// RemoveChild drops child from id's children set only. The child keeps
// its parent reference; call SetParent(child, nil) for a full detach.
func (t *Tree) RemoveChild(id, childID uuid.UUID) error {
	if _, err := t.Get(id); err != nil {
		return err
	}
	unlink(t.children, id, childID)
	return nil
}

// AddPage files a page under the category, moving it out of any other one.
func (t *Tree) AddPage(id, pageID uuid.UUID) error {
	if _, err := t.Active(id); err != nil {
		return err
	}
	p, err := t.Page(pageID)
	if err != nil {
		return err
	}
	if p.CategoryID != nil && *p.CategoryID != id {
		unlink(t.filed, *p.CategoryID, pageID)
	}
	link(t.filed, id, pageID)
	if p.CategoryID == nil || *p.CategoryID != id {
		cid := id
		p.CategoryID = &cid
	}
	return nil
}

// RemovePage drops the page from the category and clears its category
// reference. A page filed elsewhere keeps its reference.
func (t *Tree) RemovePage(id, pageID uuid.UUID) error {
	if _, err := t.Get(id); err != nil {
		return err
	}
	p, err := t.Page(pageID)
	if err != nil {
		return err
	}
	unlink(t.filed, id, pageID)
	if p.CategoryID != nil && *p.CategoryID == id {
		p.CategoryID = nil
	}
	return nil
}

// detach clears c's parent and removes it from the parent's children set.
func (t *Tree) detach(c *models.Category) {
	if c.ParentID != nil {
		unlink(t.children, *c.ParentID, c.ID)
	}
	c.ParentID = nil
}

// isAncestor reports whether ancestor appears on the parent chain starting
// at id (id itself included). The walk stops at the first repeated node.
func (t *Tree) isAncestor(ancestor, id uuid.UUID) bool {
	seen := make(map[uuid.UUID]bool)
	for cur := id; !seen[cur]; {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
		c, ok := t.categories[cur]
		if !ok || c.ParentID == nil {
			return false
		}
		cur = *c.ParentID
	}
	return false
}
