// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Page is a piece of content that can be filed under one category.
type Page struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	CategoryID *uuid.UUID `json:"category_id"`
	Enabled    bool       `json:"enabled"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewPage returns a disabled page stamped with the current time.
func NewPage(title, slug string) *Page {
	now := time.Now()
	return &Page{
		Title:     title,
		Slug:      slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
