// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"catree/internal/models"
	"catree/internal/store"
	"catree/internal/tree"
)

// pageView is the JSON shape of a page.
type pageView struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	CategoryID *uuid.UUID `json:"category_id"`
	Enabled    bool       `json:"enabled"`
}

func newPageView(p *models.Page) pageView {
	return pageView{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		CategoryID: p.CategoryID,
		Enabled:    p.Enabled,
	}
}

// pageInput is the body of page create requests.
type pageInput struct {
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Enabled    bool       `json:"enabled"`
	CategoryID *uuid.UUID `json:"category_id"`
}

// PageCreate stores a new page, filed under a category when one is given.
func (a *API) PageCreate(w http.ResponseWriter, r *http.Request) {
	var in pageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if in.CategoryID != nil {
		if _, err := a.tree.Active(*in.CategoryID); err != nil {
			writeError(w, fmt.Errorf("category: %w", err))
			return
		}
	}

	p := models.NewPage(strings.TrimSpace(in.Title), strings.TrimSpace(in.Slug))
	p.Enabled = in.Enabled
	p.CategoryID = in.CategoryID

	if err := a.pages.Save(p); err != nil {
		writeError(w, err)
		return
	}
	if err := a.tree.InsertPage(p); err != nil {
		a.resync(err)
		writeError(w, err)
		return
	}

	a.changes.Log("page", p.ID, store.ActionCreate)
	writeJSON(w, http.StatusCreated, newPageView(p))
}

// CategoryPages lists the pages filed under a category.
func (a *API) CategoryPages(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, err := a.tree.Active(id); err != nil {
		writeError(w, err)
		return
	}
	pages, err := a.tree.Pages(id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]pageView, 0, len(pages))
	for _, p := range pages {
		out = append(out, newPageView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// PageAttach files a page under a category, moving it out of any other.
func (a *API) PageAttach(w http.ResponseWriter, r *http.Request) {
	a.filePage(w, r, true)
}

// PageDetach removes a page from a category and clears its category.
func (a *API) PageDetach(w http.ResponseWriter, r *http.Request) {
	a.filePage(w, r, false)
}

// filePage applies AddPage or RemovePage and persists the page.
func (a *API) filePage(w http.ResponseWriter, r *http.Request, attach bool) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	pageID, ok := urlID(r, "pageID")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page id"})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	op, action := a.tree.RemovePage, store.ActionUnfile
	if attach {
		op, action = a.tree.AddPage, store.ActionFile
	} else if err := a.filedUnder(id, pageID); err != nil {
		writeError(w, err)
		return
	}
	if err := op(id, pageID); err != nil {
		writeError(w, err)
		return
	}

	p, _ := a.tree.Page(pageID)
	if err := a.pages.Save(p); err != nil {
		a.resync(err)
		writeError(w, err)
		return
	}

	a.changes.Log("page", pageID, action)
	writeJSON(w, http.StatusOK, newPageView(p))
}

// filedUnder reports ErrNotFound unless the page is filed under the category.
func (a *API) filedUnder(id, pageID uuid.UUID) error {
	if _, err := a.tree.Get(id); err != nil {
		return err
	}
	p, err := a.tree.Page(pageID)
	if err != nil {
		return err
	}
	if p.CategoryID == nil || *p.CategoryID != id {
		return fmt.Errorf("page %s is not filed under category %s: %w", pageID, id, tree.ErrNotFound)
	}
	return nil
}
