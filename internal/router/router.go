// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// category API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"catree/internal/handlers"
	"catree/internal/middleware"
)

// New creates and returns the configured Chi router. limiter may be nil to
// leave writes unthrottled.
func New(api *handlers.API, limiter *middleware.WriteLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIHeaders)
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", api.CategoriesList)
			r.Post("/", api.CategoryCreate)
			r.Get("/by-path/*", api.CategoryByPath)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.CategoryGet)
				r.Put("/", api.CategoryUpdate)
				r.Patch("/", api.CategoryUpdate)
				r.Delete("/", api.CategoryDelete)
				r.Put("/parent", api.CategoryMove)

				r.Get("/pages", api.CategoryPages)
				r.Put("/pages/{pageID}", api.PageAttach)
				r.Delete("/pages/{pageID}", api.PageDetach)
			})
		})

		r.Post("/pages", api.PageCreate)
		r.Get("/changes", api.ChangesList)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
