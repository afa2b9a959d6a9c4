package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devblog/internal/handler"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

const validPostBody = `{"title":"Hello","content":"First post","category":"tech"}`

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createPost(t *testing.T, env *testEnv, title string, user *model.User) model.Post {
	t.Helper()
	body := fmt.Sprintf(`{"title":%q,"content":"body of %s","category":"tech"}`, title, title)
	rec := env.do(t, http.MethodPost, "/api/posts", body, user)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.Post](t, rec)
}

func TestPostHandler_CreateAndRead(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/posts", validPostBody, env.alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	created := decode[model.Post](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Hello", created.Title)
	assert.Equal(t, model.CategoryTech, created.Category)
	assert.Equal(t, env.alice.ID, created.AuthorID)
	assert.Equal(t, "alice@example.com", created.AuthorEmail)
	assert.Equal(t, "Alice", created.AuthorDisplayName)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	rec = env.do(t, http.MethodGet, "/api/posts/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[model.Post](t, rec))

	rec = env.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0]["id"])
	assert.NotContains(t, list[0], "content", "summaries carry no body")
}

func TestPostHandler_ListEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPostHandler_CreateErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		body      string
		signedIn  bool
		wantCode  int
		wantError string
		wantField string
	}{
		{"anonymous", validPostBody, false, http.StatusUnauthorized, "unauthorized", ""},
		{"malformed json", `{"title":`, true, http.StatusBadRequest, "validation_error", "body"},
		{"blank title", `{"title":"  ","content":"x","category":"tech"}`, true, http.StatusBadRequest, "validation_error", "title"},
		{"blank content", `{"title":"t","content":" ","category":"tech"}`, true, http.StatusBadRequest, "validation_error", "content"},
		{"unknown category", `{"title":"t","content":"x","category":"news"}`, true, http.StatusBadRequest, "validation_error", "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var user *model.User
			if tt.signedIn {
				user = env.alice
			}

			rec := env.do(t, http.MethodPost, "/api/posts", tt.body, user)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			resp := decode[handler.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.wantField, resp.Field)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestPostHandler_GetMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/posts/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[handler.ErrorResponse](t, rec).Error)
}

func TestPostHandler_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	post := createPost(t, env, "Original", env.alice)
	path := "/api/posts/" + post.ID
	edit := `{"title":"Edited","content":"new body","category":"review"}`

	t.Run("other user cannot update", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, path, edit, env.bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous cannot update", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, path, edit, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("author updates", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, path, edit, env.alice)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated := decode[model.Post](t, rec)
		assert.Equal(t, "Edited", updated.Title)
		assert.Equal(t, model.CategoryReview, updated.Category)
		assert.Equal(t, post.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))
	})

	t.Run("update missing post", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/posts/nope", edit, env.alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, path, "", env.bob)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("author deletes", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, path, "", env.alice)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())

		rec = env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, path, "", env.alice)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestPostHandler_Page(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"one", "two", "three"} {
		createPost(t, env, title, env.alice)
	}

	rec := env.do(t, http.MethodGet, "/api/posts/page?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[repository.PostPage](t, rec)
	require.Len(t, first.Posts, 2)
	assert.Equal(t, "three", first.Posts[0].Title)
	assert.Equal(t, "two", first.Posts[1].Title)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.LastDoc)

	rec = env.do(t, http.MethodGet, "/api/posts/page?limit=2&cursor="+string(first.LastDoc), "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[repository.PostPage](t, rec)
	require.Len(t, second.Posts, 1)
	assert.Equal(t, "one", second.Posts[0].Title)
	assert.False(t, second.HasMore)
}

func TestPostHandler_PageFilters(t *testing.T) {
	env := newTestEnv(t)
	createPost(t, env, "tech post", env.alice)
	rec := env.do(t, http.MethodPost, "/api/posts", `{"title":"diary","content":"x","category":"daily"}`, env.alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/posts/page?category=daily", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[repository.PostPage](t, rec)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "diary", page.Posts[0].Title)
	assert.False(t, page.HasMore)
}

func TestPostHandler_PageBadQuery(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		query     string
		wantField string
	}{
		{"limit=abc", "limit"},
		{"category=news", "category"},
		{"cursor=%21%21not-a-cursor", "cursor"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/posts/page?"+tt.query, "", nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantField, decode[handler.ErrorResponse](t, rec).Field)
		})
	}
}
