// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"catree/internal/markdown"
	"catree/internal/models"
	"catree/internal/store"
	"catree/internal/tree"
)

// categoryView is the JSON shape of a category.
type categoryView struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Path            string          `json:"path"`
	Description     *string         `json:"description,omitempty"`
	DescriptionHTML string          `json:"description_html,omitempty"`
	Enabled         bool            `json:"enabled"`
	ParentID        *uuid.UUID      `json:"parent_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Children        []*categoryView `json:"children,omitempty"`
	Pages           []pageView      `json:"pages,omitempty"`
}

// categoryInput is the body of create requests.
type categoryInput struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description"`
	Enabled     bool       `json:"enabled"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// categoryPatch is the body of update requests. Absent fields are kept.
// An empty slug is derived again from the name.
type categoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Enabled     *bool   `json:"enabled"`
}

// moveInput is the body of set-parent requests. A null parent makes the
// category a root.
type moveInput struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// view builds the JSON shape of c. Callers hold a.mu.
func (a *API) view(c *models.Category) (*categoryView, error) {
	path, err := a.tree.Path(c.ID, a.sep)
	if err != nil {
		return nil, err
	}
	v := &categoryView{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Path:        path,
		Description: c.Description,
		Enabled:     c.Enabled,
		ParentID:    c.ParentID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.Description != nil {
		html, err := markdown.ToHTML(*c.Description)
		if err != nil {
			slog.Warn("description render failed", "id", c.ID, "error", err)
		}
		v.DescriptionHTML = html
	}
	return v, nil
}

// subtree builds the view of c with all of its descendants.
func (a *API) subtree(c *models.Category) (*categoryView, error) {
	v, err := a.view(c)
	if err != nil {
		return nil, err
	}
	children, err := a.tree.Children(c.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		cv, err := a.subtree(child)
		if err != nil {
			return nil, err
		}
		v.Children = append(v.Children, cv)
	}
	return v, nil
}

// detail builds the view of c with its direct children and pages.
func (a *API) detail(c *models.Category) (*categoryView, error) {
	v, err := a.view(c)
	if err != nil {
		return nil, err
	}
	children, err := a.tree.Children(c.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		cv, err := a.view(child)
		if err != nil {
			return nil, err
		}
		v.Children = append(v.Children, cv)
	}
	pages, err := a.tree.Pages(c.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		v.Pages = append(v.Pages, newPageView(p))
	}
	return v, nil
}

// CategoriesList returns the whole category tree, roots first.
func (a *API) CategoriesList(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	roots := make([]*categoryView, 0)
	for _, c := range a.tree.Roots() {
		v, err := a.subtree(c)
		if err != nil {
			writeError(w, err)
			return
		}
		roots = append(roots, v)
	}
	writeJSON(w, http.StatusOK, roots)
}

// CategoryGet returns one category with its children and pages.
func (a *API) CategoryGet(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	c, err := a.tree.Active(id)
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := a.detail(c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CategoryByPath resolves a slug path such as "news/world/europe".
// Hits are served from the path cache when it is enabled.
func (a *API) CategoryByPath(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(chi.URLParam(r, "*"), a.sep)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty path"})
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	ctx := r.Context()
	var found *models.Category
	if a.paths != nil {
		if id, ok := a.paths.Get(ctx, path); ok {
			// A stale entry is ignored and overwritten below.
			if c, err := a.tree.Active(id); err == nil {
				if p, err := a.tree.Path(c.ID, a.sep); err == nil && p == path {
					found = c
				}
			}
		}
	}

	if found == nil {
		c, err := a.tree.ResolvePath(path, a.sep)
		if err != nil {
			writeError(w, err)
			return
		}
		found = c
		if a.paths != nil {
			a.paths.Set(ctx, path, c.ID)
		}
	}

	v, err := a.detail(found)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CategoryCreate adds a new category, optionally under a parent.
func (a *API) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if !decodeJSON(w, r, &in) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if in.ParentID != nil {
		if _, err := a.tree.Active(*in.ParentID); err != nil {
			writeError(w, fmt.Errorf("parent: %w", err))
			return
		}
	}

	c := models.NewCategory(strings.TrimSpace(in.Name))
	c.Slug = strings.TrimSpace(in.Slug)
	c.Description = in.Description
	c.Enabled = in.Enabled
	c.ParentID = in.ParentID

	if err := tree.BeforeSave(c); err != nil {
		writeError(w, err)
		return
	}
	if a.tree.BySlug(c.Slug) != nil {
		writeError(w, &tree.ValidationError{Field: "slug", Err: tree.ErrSlugTaken})
		return
	}
	if err := a.categories.Save(c); err != nil {
		writeError(w, err)
		return
	}
	if err := a.tree.Insert(c); err != nil {
		a.resync(err)
		writeError(w, err)
		return
	}

	a.changes.Log("category", c.ID, store.ActionCreate)
	slog.Info("category created", "id", c.ID, "slug", c.Slug)

	v, err := a.detail(c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// CategoryUpdate changes the name, slug, description or enabled flag.
// The slug only changes when the request names it.
func (a *API) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var in categoryPatch
	if !decodeJSON(w, r, &in) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	c, err := a.tree.Active(id)
	if err != nil {
		writeError(w, err)
		return
	}

	updated := *c
	if in.Name != nil {
		updated.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		updated.Slug = strings.TrimSpace(*in.Slug)
	}
	if in.Description != nil {
		updated.Description = in.Description
	}
	if in.Enabled != nil {
		updated.Enabled = *in.Enabled
	}

	if err := tree.BeforeSave(&updated); err != nil {
		writeError(w, err)
		return
	}
	if other := a.tree.BySlug(updated.Slug); other != nil && other.ID != id {
		writeError(w, &tree.ValidationError{Field: "slug", Err: tree.ErrSlugTaken})
		return
	}
	if err := a.categories.Save(&updated); err != nil {
		writeError(w, err)
		return
	}

	slugChanged := updated.Slug != c.Slug
	*c = updated
	if slugChanged {
		a.invalidatePaths(r.Context())
	}
	a.changes.Log("category", id, store.ActionUpdate)

	v, err := a.detail(c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CategoryMove sets or clears the parent of a category.
func (a *API) CategoryMove(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var in moveInput
	if !decodeJSON(w, r, &in) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.tree.SetParent(id, in.ParentID); err != nil {
		writeError(w, err)
		return
	}
	c, _ := a.tree.Get(id)
	if err := a.categories.Save(c); err != nil {
		a.resync(err)
		writeError(w, err)
		return
	}

	a.invalidatePaths(r.Context())
	a.changes.Log("category", id, store.ActionMove)
	slog.Info("category moved", "id", id, "parent_id", c.ParentID)

	v, err := a.detail(c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CategoryDelete tombstones a category. Its children move up one level and
// its pages are unfiled.
func (a *API) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.tree.Active(id); err != nil {
		writeError(w, err)
		return
	}
	if err := a.categories.Delete(a.tree, id); err != nil {
		a.resync(err)
		writeError(w, err)
		return
	}

	a.invalidatePaths(r.Context())
	a.changes.Log("category", id, store.ActionDelete)
	w.WriteHeader(http.StatusNoContent)
}

// ChangesList returns the most recent tree changes.
func (a *API) ChangesList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	entries, err := a.changes.RecentEntries(limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []store.ChangeLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
