// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"catree/internal/models"
)

// DefaultSeparator joins slugs in a tree path.
const DefaultSeparator = "/"

// Path returns the root-to-leaf slug path of a category joined with sep,
// e.g. "news/local/sports". Leading and trailing separator characters are
// trimmed from the result.
func (t *Tree) Path(id uuid.UUID, sep string) (string, error) {
	c, err := t.Get(id)
	if err != nil {
		return "", err
	}

	var segments []string
	seen := make(map[uuid.UUID]bool)
	for cur := c; cur != nil; {
		if seen[cur.ID] {
			return "", &InvariantViolation{Op: "path", ID: id, Err: ErrCycle}
		}
		seen[cur.ID] = true
		segments = append(segments, cur.Slug)
		if cur.ParentID == nil {
			break
		}
		cur = t.categories[*cur.ParentID]
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return strings.Trim(strings.Join(segments, sep), sep), nil
}

// ResolvePath finds the active category whose tree path equals path.
func (t *Tree) ResolvePath(path, sep string) (*models.Category, error) {
	path = strings.Trim(path, sep)
	if path == "" || sep == "" {
		return nil, fmt.Errorf("path %q: %w", path, ErrNotFound)
	}

	level := t.Roots()
	var found *models.Category
	for _, segment := range strings.Split(path, sep) {
		found = nil
		for _, c := range level {
			if c.Slug == segment && c.DeletedAt == nil {
				found = c
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("path %q: %w", path, ErrNotFound)
		}
		level, _ = t.Children(found.ID)
	}
	return found, nil
}
