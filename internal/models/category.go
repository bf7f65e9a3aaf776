// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryState is the lifecycle state of a category.
type CategoryState string

const (
	CategoryStateActive  CategoryState = "active"
	CategoryStateDeleted CategoryState = "deleted"
)

// Category represents a node in the hierarchical content tree.
// Children and pages are tracked by the tree manager as identifier sets;
// the entity itself only holds its parent back-reference.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	Enabled     bool       `json:"enabled"`
	ParentID    *uuid.UUID `json:"parent_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// NewCategory returns a disabled category stamped with the current time.
func NewCategory(name string) *Category {
	now := time.Now()
	return &Category{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State reports whether the category is active or tombstoned.
func (c *Category) State() CategoryState {
	if c.DeletedAt != nil {
		return CategoryStateDeleted
	}
	return CategoryStateActive
}

// IsRoot returns true if the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

func (c *Category) String() string {
	return c.Name
}
