// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON admin API for the category tree.
// Handlers hold the shared in-memory tree and persist every mutation
// through the store before answering.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"catree/internal/cache"
	"catree/internal/models"
	"catree/internal/store"
	"catree/internal/tree"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// CategoryRepository persists categories. *store.CategoryStore implements it.
type CategoryRepository interface {
	Save(c *models.Category) error
	Delete(t *tree.Tree, id uuid.UUID) error
	LoadTree() (*tree.Tree, error)
}

// PageRepository persists pages. *store.PageStore implements it.
type PageRepository interface {
	Save(p *models.Page) error
}

// PathCache remembers resolved tree paths. *cache.PathCache implements it.
type PathCache interface {
	Get(ctx context.Context, path string) (uuid.UUID, bool)
	Set(ctx context.Context, path string, id uuid.UUID)
	InvalidateAll(ctx context.Context)
}

// ChangeLog records tree mutations. *store.ChangeLogStore implements it.
type ChangeLog interface {
	Log(entityType string, entityID uuid.UUID, action string)
	RecentEntries(limit int) ([]store.ChangeLogEntry, error)
}

var (
	_ CategoryRepository = (*store.CategoryStore)(nil)
	_ PageRepository     = (*store.PageStore)(nil)
	_ PathCache          = (*cache.PathCache)(nil)
	_ ChangeLog          = (*store.ChangeLogStore)(nil)
)

// API groups the category admin handlers and their dependencies.
type API struct {
	mu         sync.RWMutex
	tree       *tree.Tree
	categories CategoryRepository
	pages      PageRepository
	paths      PathCache // nil when caching is disabled
	changes    ChangeLog
	sep        string
}

// NewAPI creates the admin API over a loaded tree. paths may be nil.
func NewAPI(t *tree.Tree, categories CategoryRepository, pages PageRepository, paths PathCache, changes ChangeLog, sep string) *API {
	if sep == "" {
		sep = tree.DefaultSeparator
	}
	return &API{
		tree:       t,
		categories: categories,
		pages:      pages,
		paths:      paths,
		changes:    changes,
		sep:        sep,
	}
}

// resync replaces the in-memory tree with the persisted one after a failed
// write left them apart. Callers hold a.mu.
func (a *API) resync(cause error) {
	t, err := a.categories.LoadTree()
	if err != nil {
		slog.Error("tree reload failed", "error", err, "cause", cause)
		return
	}
	a.tree = t
	slog.Warn("tree reloaded after failed write", "cause", cause)
}

// invalidatePaths clears every cached path. Any move, rename or delete can
// change the path of a whole subtree.
func (a *API) invalidatePaths(ctx context.Context) {
	if a.paths != nil {
		a.paths.InvalidateAll(ctx)
	}
}

// urlID parses a UUID route parameter.
func urlID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// decodeJSON reads a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps tree and store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verr *tree.ValidationError
	var inv *tree.InvariantViolation

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
	case errors.As(err, &inv), errors.Is(err, tree.ErrCycle), errors.Is(err, tree.ErrDuplicate):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, tree.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, tree.ErrDeleted):
		writeJSON(w, http.StatusGone, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
