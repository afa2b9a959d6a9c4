package repository

import (
	"slices"

	"github.com/sakif/devblog/internal/model"
)

// SortCommentsOldestFirst orders comments by CreatedAt ascending, in place.
//
// Comment reads ask the store for an unordered equality match and sort here
// instead. A comment without a timestamp sorts as if it were created at
// Unix time 0. The sort is stable: comments with equal timestamps keep the
// order the store returned them in.
func SortCommentsOldestFirst(comments []model.Comment) {
	slices.SortStableFunc(comments, func(a, b model.Comment) int {
		ka, kb := commentSortKey(a), commentSortKey(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}

func commentSortKey(c model.Comment) int64 {
	if c.CreatedAt.IsZero() {
		return 0
	}
	return c.CreatedAt.UnixMilli()
}

// SameSnapshot reports whether two live-query results are identical, so a
// subscriber is only called back when its result actually changed.
func SameSnapshot(a, b []model.PostSummary) bool {
	return slices.EqualFunc(a, b, func(x, y model.PostSummary) bool {
		return x.ID == y.ID &&
			x.Title == y.Title &&
			x.Category == y.Category &&
			x.AuthorEmail == y.AuthorEmail &&
			x.AuthorDisplayName == y.AuthorDisplayName &&
			x.CreatedAt.Equal(y.CreatedAt)
	})
}
