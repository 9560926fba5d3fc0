// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"inkpress/internal/middleware"
	"inkpress/internal/model"
	"inkpress/internal/ratelimit"
)

// RouterConfig carries the cross-cutting dependencies the router wires
// around the handlers.
type RouterConfig struct {
	DB           *sql.DB
	LoginLimiter ratelimit.Limiter
	GlobalRPS    float64
	GlobalBurst  int
	Security     middleware.SecurityHeadersConfig

	// CSRF is optional; nil disables the middleware (tests).
	CSRF *middleware.CSRFConfig
}

// Routes assembles the full API router.
func (h *Handler) Routes(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.SecurityHeaders(cfg.Security))
	if cfg.GlobalRPS > 0 {
		r.Use(middleware.GlobalRateLimit(cfg.GlobalRPS, cfg.GlobalBurst))
	}
	r.Use(h.sessions.LoadAndSave)
	r.Use(middleware.LoadUser(h.sessions, cfg.DB))
	if cfg.CSRF != nil {
		r.Use(middleware.CSRF(*cfg.CSRF))
	}

	// Public surface.
	r.Get("/posts", h.ListPublishedPosts)
	r.Get("/posts/{slug}", h.GetPublishedPost)
	r.Get("/comments/{postSlug}", h.ListComments)
	r.Post("/comments", h.SubmitComment)
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{slug}", h.GetTag)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(middleware.LoginRateLimit(cfg.LoginLimiter)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)
	})

	// Admin surface. Each group carries the minimum role for its
	// operations; ownership checks happen inside the handlers.
	r.Route("/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAuthor))
			r.Get("/posts", h.ListPosts)
			r.Post("/posts", h.CreatePost)
			r.Get("/posts/{id}", h.GetPost)
			r.Put("/posts/{id}", h.UpdatePost)
			r.Post("/tags", h.CreateTag)
			r.Put("/tags/{id}", h.UpdateTag)
			r.Get("/stats", h.GetStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleAdmin))
			r.Delete("/posts/{id}", h.DeletePost)
			r.Get("/events", h.ListEvents)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleSuperAdmin))
			r.Get("/comments", h.ListCommentsForModeration)
			r.Put("/comments/{id}", h.ModerateComment)
			r.Delete("/comments/{id}", h.DeleteComment)
			r.Post("/comments/bulk", h.BulkModerateComments)
			r.Delete("/tags/{id}", h.DeleteTag)
			r.Get("/users", h.ListUsers)
			r.Put("/users/{id}/role", h.ChangeUserRole)
			r.Get("/users/{id}/role-history", h.UserRoleHistory)
		})
	})

	return r
}
