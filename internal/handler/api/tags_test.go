package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkpress/internal/model"
)

func TestTagLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.handler.CreateTag(rec, jsonRequest(t, http.MethodPost, "/admin/tags", map[string]string{
		"name": "Go Programming",
	}))
	assertStatus(t, rec, http.StatusCreated)

	body := decodeBody(t, rec.Body)
	if body["slug"] != "go-programming" {
		t.Errorf("slug = %v, want go-programming", body["slug"])
	}
	tagID := int64(body["id"].(float64))

	t.Run("duplicate name is 409", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.handler.CreateTag(rec, jsonRequest(t, http.MethodPost, "/admin/tags", map[string]string{
			"name": "Go Programming",
		}))
		assertStatus(t, rec, http.StatusConflict)
	})

	t.Run("rename rederives the slug", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withURLParams(jsonRequest(t, http.MethodPut, "/admin/tags/1", map[string]string{
			"name": "Golang",
		}), map[string]string{"id": fmt.Sprint(tagID)})
		env.handler.UpdateTag(rec, r)
		assertStatus(t, rec, http.StatusOK)

		body := decodeBody(t, rec.Body)
		if body["slug"] != "golang" {
			t.Errorf("slug = %v, want golang", body["slug"])
		}
	})

	t.Run("delete at zero posts succeeds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := withURLParams(jsonRequest(t, http.MethodDelete, "/admin/tags/1", nil),
			map[string]string{"id": fmt.Sprint(tagID)})
		env.handler.DeleteTag(rec, r)
		assertStatus(t, rec, http.StatusOK)
	})
}

func TestDeleteTagInUse(t *testing.T) {
	env := newTestEnv(t)
	author := createUser(t, env.db, "author@example.com", "password123", model.RoleAuthor)

	rec := httptest.NewRecorder()
	r := withUser(jsonRequest(t, http.MethodPost, "/admin/posts", map[string]any{
		"title":   "Tagged Post",
		"content": "A post that pins its tag in place.",
		"tags":    []string{"sticky"},
	}), author)
	env.handler.CreatePost(rec, r)
	assertStatus(t, rec, http.StatusCreated)

	tag, err := env.handler.tags.GetBySlug(r.Context(), "sticky")
	if err != nil {
		t.Fatalf("failed to load tag: %v", err)
	}

	rec = httptest.NewRecorder()
	r = withURLParams(jsonRequest(t, http.MethodDelete, "/admin/tags/1", nil),
		map[string]string{"id": fmt.Sprint(tag.ID)})
	env.handler.DeleteTag(rec, r)
	assertStatus(t, rec, http.StatusConflict)

	body := decodeBody(t, rec.Body)
	want := "Cannot delete tag. It is used by 1 post(s)."
	if body["error"] != want {
		t.Errorf("error = %v, want %q", body["error"], want)
	}
}

func TestListTagsPublic(t *testing.T) {
	env := newTestEnv(t)
	author := createUser(t, env.db, "author@example.com", "password123", model.RoleAuthor)

	rec := httptest.NewRecorder()
	r := withUser(jsonRequest(t, http.MethodPost, "/admin/posts", map[string]any{
		"title":   "Counting Post",
		"content": "This post carries two tags with it.",
		"status":  "published",
		"tags":    []string{"one", "two"},
	}), author)
	env.handler.CreatePost(rec, r)
	assertStatus(t, rec, http.StatusCreated)

	router := env.router(t)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tags", nil))
	assertStatus(t, rec, http.StatusOK)

	body := decodeBody(t, rec.Body)
	tags := body["tags"].([]any)
	if len(tags) != 2 {
		t.Fatalf("tags = %d, want 2", len(tags))
	}
	for _, raw := range tags {
		tag := raw.(map[string]any)
		if tag["post_count"].(float64) != 1 {
			t.Errorf("tag %v post_count = %v, want 1", tag["slug"], tag["post_count"])
		}
	}
}
