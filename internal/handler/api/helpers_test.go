package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	_ "github.com/mattn/go-sqlite3"

	"inkpress/internal/auth"
	"inkpress/internal/geoip"
	"inkpress/internal/middleware"
	"inkpress/internal/model"
	"inkpress/internal/ratelimit"
	"inkpress/internal/service"
	"inkpress/internal/store"
)

// testDB creates an in-memory SQLite database with the full schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_fk=1")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

type testEnv struct {
	db      *sql.DB
	handler *Handler
	limiter *ratelimit.MemoryLimiter
}

// newTestEnv builds a Handler over an in-memory database with a
// memory-backed comment limiter.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	limiter := ratelimit.NewMemory(ratelimit.Comment)

	sm := scs.New()
	sm.Lifetime = 24 * time.Hour

	geo, err := geoip.New("")
	if err != nil {
		t.Fatalf("failed to build geoip resolver: %v", err)
	}

	events := service.NewEventService(db)
	h := NewHandler(
		service.NewPostService(db, events),
		service.NewCommentService(db, limiter, events),
		service.NewTagService(db),
		service.NewUserService(db, events),
		events,
		service.NewStatsService(db),
		sm,
		geo,
	)
	return &testEnv{db: db, handler: h, limiter: limiter}
}

// router builds the full middleware stack without CSRF, using a small
// fixed-window login limit so tests can hit it quickly.
func (env *testEnv) router(t *testing.T) http.Handler {
	t.Helper()
	return env.handler.Routes(RouterConfig{
		DB:           env.db,
		LoginLimiter: ratelimit.NewMemory(ratelimit.Login),
		Security:     middleware.DefaultSecurityHeadersConfig(true),
	})
}

func createUser(t *testing.T, db *sql.DB, email, password string, role model.Role) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func publishPost(t *testing.T, h *Handler, authorID int64, title string) *service.PostView {
	t.Helper()

	post, err := h.posts.Create(context.Background(), authorID, service.PostInput{
		Title:   title,
		Content: "Content long enough to mean something.",
		Status:  model.PostStatusPublished,
	})
	if err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return post
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withUser injects an authenticated user into the request context the
// way LoadUser does.
func withUser(r *http.Request, user model.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyUser, user))
}

// withURLParams adds chi URL parameters for direct handler calls.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals a recorded JSON response.
func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d; want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
