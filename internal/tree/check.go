// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

// Check walks the whole arena and returns the first broken invariant:
// a self or dangling parent, a parent cycle, a child set entry whose
// parent disagrees (which also rules out a child listed under two parents),
// or a page set entry whose category disagrees.
func (t *Tree) Check() error {
	for _, c := range t.Categories() {
		if c.ParentID == nil {
			continue
		}
		if *c.ParentID == c.ID {
			return &InvariantViolation{Op: "check", ID: c.ID, Err: ErrCycle}
		}
		if _, ok := t.categories[*c.ParentID]; !ok {
			return &InvariantViolation{Op: "check", ID: c.ID, Err: ErrDangling}
		}
		if _, err := t.Ancestors(c.ID); err != nil {
			return err
		}
	}

	for parentID, set := range t.children {
		for childID := range set {
			child, ok := t.categories[childID]
			if !ok {
				return &InvariantViolation{Op: "check", ID: childID, Err: ErrDangling}
			}
			if child.ParentID == nil || *child.ParentID != parentID {
				return &InvariantViolation{Op: "check", ID: childID, Err: ErrUnlinked}
			}
		}
	}

	for categoryID, set := range t.filed {
		for pageID := range set {
			p, ok := t.pages[pageID]
			if !ok {
				return &InvariantViolation{Op: "check", ID: pageID, Err: ErrDangling}
			}
			if p.CategoryID == nil || *p.CategoryID != categoryID {
				return &InvariantViolation{Op: "check", ID: pageID, Err: ErrUnlinked}
			}
		}
	}
	return nil
}
