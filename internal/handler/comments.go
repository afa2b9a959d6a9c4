package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/service"
)

// CommentHandler serves /api/posts/{id}/comments and /api/comments/{id}.
type CommentHandler struct {
	comments *service.CommentService
	users    UserLookup
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, users UserLookup, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, users: users, logger: logger}
}

// HandleList returns the post's comments, oldest first.
//
// HTTP: GET /api/posts/{id}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListByPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleCreate adds a comment to a post.
//
// HTTP: POST /api/posts/{id}/comments
// Body: {"content": "..."}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var input model.CommentInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), user, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// HTTP: PUT /api/comments/{id}
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	var input model.CommentInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), user, chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// HTTP: DELETE /api/comments/{id}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.comments.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
