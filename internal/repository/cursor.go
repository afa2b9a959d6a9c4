package repository

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/sakif/devblog/internal/apperror"
)

// Cursor is an opaque page token pointing at the last post of a page.
//
// It encodes the sort key of that post, (createdAt, id), as URL-safe base64
// JSON. Backends resume a listing strictly after that key:
//
//	createdAt < c.createdAt  OR  (createdAt == c.createdAt AND id < c.id)
//
// The id tie-break gives every post a distinct position in the order, so
// posts sharing a timestamp are neither skipped nor repeated across pages.
type Cursor string

type cursorKey struct {
	CreatedAt int64  `json:"t"`
	ID        string `json:"id"`
}

// NewCursor builds the cursor for a post with the given sort key.
func NewCursor(createdAt time.Time, id string) Cursor {
	b, _ := json.Marshal(cursorKey{CreatedAt: createdAt.UnixNano(), ID: id})
	return Cursor(base64.RawURLEncoding.EncodeToString(b))
}

// Decode returns the sort key held by the cursor. A malformed cursor is a
// validation error, since it can only come from a client.
func (c Cursor) Decode() (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return time.Time{}, "", apperror.ValidationFailed("cursor", "malformed page cursor")
	}

	var k cursorKey
	if err := json.Unmarshal(raw, &k); err != nil || k.ID == "" {
		return time.Time{}, "", apperror.ValidationFailed("cursor", "malformed page cursor")
	}

	return time.Unix(0, k.CreatedAt).UTC(), k.ID, nil
}

// IsZero reports whether the cursor is empty (first page).
func (c Cursor) IsZero() bool {
	return c == ""
}
