package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"inkpress/internal/model"
)

// TestAdminAccessControl exercises the 401/403 split through the full
// router: no session is always 401, an authenticated user below the
// required rank is 403.
func TestAdminAccessControl(t *testing.T) {
	env := newTestEnv(t)
	createUser(t, env.db, "reader@example.com", "password123", model.RoleReader)
	createUser(t, env.db, "author@example.com", "password123", model.RoleAuthor)
	createUser(t, env.db, "admin@example.com", "password123", model.RoleAdmin)
	createUser(t, env.db, "super@example.com", "password123", model.RoleSuperAdmin)
	router := env.router(t)

	cookies := map[string]*http.Cookie{
		"reader": loginFor(t, router, "reader@example.com", "password123"),
		"author": loginFor(t, router, "author@example.com", "password123"),
		"admin":  loginFor(t, router, "admin@example.com", "password123"),
		"super":  loginFor(t, router, "super@example.com", "password123"),
	}

	tests := []struct {
		name   string
		method string
		target string
		as     string // empty means no session
		want   int
	}{
		{"admin posts without session", http.MethodGet, "/admin/posts", "", http.StatusUnauthorized},
		{"admin posts as reader", http.MethodGet, "/admin/posts", "reader", http.StatusForbidden},
		{"admin posts as author", http.MethodGet, "/admin/posts", "author", http.StatusOK},
		{"moderation queue as admin", http.MethodGet, "/admin/comments", "admin", http.StatusForbidden},
		{"moderation queue as super", http.MethodGet, "/admin/comments", "super", http.StatusOK},
		{"user list as admin", http.MethodGet, "/admin/users", "admin", http.StatusForbidden},
		{"user list as super", http.MethodGet, "/admin/users", "super", http.StatusOK},
		{"stats as reader", http.MethodGet, "/admin/stats", "reader", http.StatusForbidden},
		{"stats as author", http.MethodGet, "/admin/stats", "author", http.StatusOK},
		{"stats as admin", http.MethodGet, "/admin/stats", "admin", http.StatusOK},
		{"events as author", http.MethodGet, "/admin/events", "author", http.StatusForbidden},
		{"events as admin", http.MethodGet, "/admin/events", "admin", http.StatusOK},
		{"tag delete as admin", http.MethodDelete, "/admin/tags/1", "admin", http.StatusForbidden},
		{"post delete as author", http.MethodDelete, "/admin/posts/1", "author", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.as != "" {
				r.AddCookie(cookies[tt.as])
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body: %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	router := env.router(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("responses must carry X-Content-Type-Options: nosniff")
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("responses must carry a Content-Security-Policy")
	}
}
