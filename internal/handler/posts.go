// Package handler contains the HTTP handlers of the blog.
//
// Handlers only translate between HTTP and the service layer: parse the
// request, call a service method, write JSON. Business rules live in
// internal/service.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
	"github.com/sakif/devblog/internal/service"
)

// PostHandler serves the /api/posts routes.
type PostHandler struct {
	posts  *service.PostService
	users  UserLookup
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, users UserLookup, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, users: users, logger: logger}
}

// HandleList returns the newest posts.
//
// HTTP: GET /api/posts?limit=20
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.posts.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandlePage returns one page of the listing.
//
// HTTP: GET /api/posts/page?category=tech&limit=5&cursor=<lastDoc>
//
// RESPONSE FORMAT:
//
//	{"posts": [...], "lastDoc": "eyJ0Ijo...", "hasMore": true}
//
// Pass lastDoc back as cursor to get the next page.
func (h *PostHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	category, err := queryCategory(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.posts.Page(r.Context(), repository.PageOptions{
		Category: category,
		Limit:    limit,
		LastDoc:  repository.Cursor(r.URL.Query().Get("cursor")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet returns a single post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleCreate creates a post authored by the signed-in user.
//
// HTTP: POST /api/posts
// Body: {"title": "...", "content": "...", "category": "tech"}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var input model.PostInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Create(r.Context(), user, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate replaces title, content and category.
//
// HTTP: PUT /api/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var input model.PostInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Update(r.Context(), user, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post. Its comments stay.
//
// HTTP: DELETE /api/posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
