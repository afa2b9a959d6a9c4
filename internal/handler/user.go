package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/auth"
	"github.com/sakif/devblog/internal/model"
)

// UserLookup resolves the authenticated user id to the full account, which
// supplies the author fields of new posts and comments.
// *service.AuthService implements it.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// currentUser returns the signed-in user, or apperror.ErrUnauthorized.
func currentUser(r *http.Request, users UserLookup) (*model.User, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("sign in required")
	}

	user, err := users.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Valid token for an account that no longer exists.
			return nil, apperror.Unauthorized("sign in required")
		}
		return nil, err
	}
	return user, nil
}
