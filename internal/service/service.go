// Package service contains the business logic layer of the blog.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     parses requests, writes responses
//	Service (business layer) validates, enforces rules, orchestrates
//	Repository (data layer)  reads/writes the document store
//
// Services take repository interfaces, never a concrete store, so the same
// code runs on SQLite, MongoDB, or the in-memory fakes used in tests.
//
// RULES ENFORCED HERE (not in the repositories):
//   - input validation (lengths, category enumeration)
//   - list limits are clamped to sane ranges
//   - a missing post or comment on read is an apperror.NotFound
//   - only the author may edit or delete a post or comment
//   - a comment can only be added to a post that exists
package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
)

// Validation limits, counted in characters (runes).
const (
	MaxTitleLength          = 100
	MaxPostContentLength    = 20000
	MaxCommentContentLength = 2000

	MaxListLimit = 100
	MaxPageLimit = 50
)

// normalizePost trims the input and checks it against the post rules.
func normalizePost(in model.PostInput) (model.PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = model.Category(strings.TrimSpace(string(in.Category)))

	switch n := utf8.RuneCountInString(in.Title); {
	case n == 0:
		return in, apperror.ValidationFailed("title", "title is required")
	case n > MaxTitleLength:
		return in, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}

	if strings.TrimSpace(in.Content) == "" {
		return in, apperror.ValidationFailed("content", "content is required")
	}
	if utf8.RuneCountInString(in.Content) > MaxPostContentLength {
		return in, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxPostContentLength))
	}

	if !in.Category.Valid() {
		return in, apperror.ValidationFailed("category",
			fmt.Sprintf("category must be one of %v", model.Categories))
	}

	return in, nil
}

func normalizeComment(in model.CommentInput) (model.CommentInput, error) {
	if strings.TrimSpace(in.Content) == "" {
		return in, apperror.ValidationFailed("content", "comment is required")
	}
	if utf8.RuneCountInString(in.Content) > MaxCommentContentLength {
		return in, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentContentLength))
	}
	return in, nil
}

// clamp returns def when n <= 0 and max when n > max.
func clamp(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// requireAuthor fails unless user wrote the document owned by authorID.
func requireAuthor(user *model.User, authorID, resource string) error {
	if user == nil || user.ID == "" {
		return apperror.Unauthorized("sign in required")
	}
	if user.ID != authorID {
		return apperror.Forbidden(fmt.Sprintf("only the author can change this %s", resource))
	}
	return nil
}
