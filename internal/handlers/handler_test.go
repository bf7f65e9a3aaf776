// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Most tests run against in-memory repositories; the integration tests at
// the bottom are skipped when PostgreSQL is unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"catree/internal/database"
	"catree/internal/models"
	"catree/internal/store"
	"catree/internal/tree"
)

// memDB is the shared state behind the fake repositories.
type memDB struct {
	categories map[uuid.UUID]models.Category
	pages      map[uuid.UUID]models.Page
	failSave   error
}

func newMemDB() *memDB {
	return &memDB{
		categories: make(map[uuid.UUID]models.Category),
		pages:      make(map[uuid.UUID]models.Page),
	}
}

func cloneCategory(c *models.Category) models.Category {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	return cp
}

func clonePage(p *models.Page) models.Page {
	cp := *p
	if p.CategoryID != nil {
		cid := *p.CategoryID
		cp.CategoryID = &cid
	}
	return cp
}

// fakeCategories mirrors store.CategoryStore over memDB.
type fakeCategories struct{ db *memDB }

func (f fakeCategories) Save(c *models.Category) error {
	if f.db.failSave != nil {
		return f.db.failSave
	}
	if err := tree.BeforeSave(c); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.UpdatedAt = time.Now()
	f.db.categories[c.ID] = cloneCategory(c)
	return nil
}

func (f fakeCategories) Delete(t *tree.Tree, id uuid.UUID) error {
	d, err := t.BeforeDelete(id)
	if err != nil {
		return err
	}
	if f.db.failSave != nil {
		return f.db.failSave
	}
	for _, c := range d.Promoted {
		f.db.categories[c.ID] = cloneCategory(c)
	}
	for _, p := range d.Detached {
		f.db.pages[p.ID] = clonePage(p)
	}
	f.db.categories[id] = cloneCategory(d.Category)
	return nil
}

func (f fakeCategories) LoadTree() (*tree.Tree, error) {
	t := tree.New()
	for _, c := range f.db.categories {
		if c.DeletedAt != nil {
			continue
		}
		cp := cloneCategory(&c)
		if err := t.Insert(&cp); err != nil {
			return nil, err
		}
	}
	for _, p := range f.db.pages {
		cp := clonePage(&p)
		if err := t.InsertPage(&cp); err != nil {
			return nil, err
		}
	}
	return t, t.Check()
}

// fakePages mirrors store.PageStore over memDB.
type fakePages struct{ db *memDB }

func (f fakePages) Save(p *models.Page) error {
	if f.db.failSave != nil {
		return f.db.failSave
	}
	if err := tree.BeforeSavePage(p); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.db.pages[p.ID] = clonePage(p)
	return nil
}

// fakePaths is an in-memory PathCache that counts hits and flushes.
type fakePaths struct {
	entries map[string]uuid.UUID
	hits    int
	flushes int
}

func newFakePaths() *fakePaths {
	return &fakePaths{entries: make(map[string]uuid.UUID)}
}

func (f *fakePaths) Get(_ context.Context, path string) (uuid.UUID, bool) {
	id, ok := f.entries[path]
	if ok {
		f.hits++
	}
	return id, ok
}

func (f *fakePaths) Set(_ context.Context, path string, id uuid.UUID) {
	f.entries[path] = id
}

func (f *fakePaths) InvalidateAll(_ context.Context) {
	f.entries = make(map[string]uuid.UUID)
	f.flushes++
}

// fakeChanges records change log entries in memory.
type fakeChanges struct {
	entries []store.ChangeLogEntry
	err     error
}

func (f *fakeChanges) Log(entityType string, entityID uuid.UUID, action string) {
	f.entries = append(f.entries, store.ChangeLogEntry{
		ID:         int64(len(f.entries) + 1),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ChangedAt:  time.Now(),
	})
}

func (f *fakeChanges) RecentEntries(limit int) ([]store.ChangeLogEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]store.ChangeLogEntry, len(f.entries))
	copy(out, f.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// actions returns the logged actions in order.
func (f *fakeChanges) actions() []string {
	var out []string
	for _, e := range f.entries {
		out = append(out, e.EntityType+":"+e.Action)
	}
	return out
}

// testEnv holds an API wired to in-memory dependencies.
type testEnv struct {
	API     *API
	DB      *memDB
	Paths   *fakePaths
	Changes *fakeChanges
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	paths := newFakePaths()
	changes := &fakeChanges{}
	api := NewAPI(tree.New(), fakeCategories{db}, fakePages{db}, paths, changes, "")
	return &testEnv{API: api, DB: db, Paths: paths, Changes: changes}
}

// withURLParams adds chi URL parameters to a request, given as key/value pairs.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// call runs a handler with an optional JSON body and URL parameters.
func call(t *testing.T, h http.HandlerFunc, method, target string, body any, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = withURLParams(req, params...)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// createCategory creates a category through the API and returns its view.
func createCategory(t *testing.T, env *testEnv, name string, parent *uuid.UUID) categoryView {
	t.Helper()
	rec := call(t, env.API.CategoryCreate, http.MethodPost, "/api/categories",
		map[string]any{"name": name, "parent_id": parent, "enabled": true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %q: status %d, body %s", name, rec.Code, rec.Body.String())
	}
	return decode[categoryView](t, rec)
}

// createPage creates a page through the API and returns its view.
func createPage(t *testing.T, env *testEnv, title string, category *uuid.UUID) pageView {
	t.Helper()
	rec := call(t, env.API.PageCreate, http.MethodPost, "/api/pages",
		map[string]any{"title": title, "category_id": category})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create page %q: status %d, body %s", title, rec.Code, rec.Body.String())
	}
	return decode[pageView](t, rec)
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }

var errStorage = errors.New("storage unavailable")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "catree")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "catree")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}
