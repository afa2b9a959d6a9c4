// Package repository declares the data-access contracts of the blog and the
// small pieces of logic every store backend shares (page cursors, the
// comment sort, snapshot comparison).
//
// Backends live in subpackages:
//
//	repository/sqlite  embedded SQLite document store (default, tests)
//	repository/mongodb MongoDB document store with change-stream live queries
//
// Each repository is a thin translation layer: typed inputs become store
// queries or mutations, store documents become model values. Store errors
// are wrapped with %w and passed up; there is no retry and no caching, so
// every read goes to the store.
package repository

import (
	"context"

	"github.com/sakif/devblog/internal/model"
)

// Defaults for list operations.
const (
	DefaultPostsLimit    = 20
	DefaultPageLimit     = 5
	DefaultRealtimeLimit = 20
)

// Collection names, shared by every backend. They double as change-hub
// topics for the SQLite backend.
const (
	PostsCollection    = "posts"
	CommentsCollection = "comments"
	UsersCollection    = "users"
)

// PageOptions controls PostRepository.GetPostsWithOptions.
//
// Category nil means unfiltered. Limit <= 0 means DefaultPageLimit.
// LastDoc is the cursor returned with the previous page; empty for page 1.
type PageOptions struct {
	Category *model.Category
	Limit    int
	LastDoc  Cursor
}

// PostPage is one page of the createdAt-descending post listing.
//
// LastDoc is the cursor of the final post on this page, to be passed back as
// PageOptions.LastDoc for the next page. It is empty when Posts is empty.
type PostPage struct {
	Posts   []model.PostSummary `json:"posts"`
	LastDoc Cursor              `json:"lastDoc"`
	HasMore bool                `json:"hasMore"`
}

// SubscribeOptions controls PostRepository.SubscribePosts.
//
// OnError receives a failure of an established subscription. It is called
// at most once, after which the subscription is over; it is never
// re-established automatically.
type SubscribeOptions struct {
	Category *model.Category
	Limit    int
	OnError  func(error)
}

// Unsubscribe stops a live subscription. It is safe to call any number of
// times; after the first call returns no further callbacks are started.
type Unsubscribe func()

// SnapshotFunc receives the complete current result of a live query.
type SnapshotFunc func(posts []model.PostSummary)

// PostRepository is the data-access contract for posts.
type PostRepository interface {
	// CreatePost stores a new post authored by user and returns its id.
	// CreatedAt and UpdatedAt are both set to the same store time.
	CreatePost(ctx context.Context, input model.PostInput, user *model.User) (string, error)

	// GetPosts returns up to limit summaries, newest first.
	GetPosts(ctx context.Context, limit int) ([]model.PostSummary, error)

	// GetPost returns the post with the given id. A missing post is reported
	// as (nil, false, nil), not as an error.
	GetPost(ctx context.Context, id string) (*model.Post, bool, error)

	// UpdatePost overwrites title, content and category and refreshes
	// UpdatedAt. A missing post fails with apperror.ErrNotFound.
	UpdatePost(ctx context.Context, id string, input model.PostInput) error

	// DeletePost hard-deletes the post. Deleting a missing post succeeds.
	DeletePost(ctx context.Context, id string) error

	// GetPostsWithOptions returns one page of the newest-first listing.
	GetPostsWithOptions(ctx context.Context, opts PageOptions) (*PostPage, error)

	// SubscribePosts starts a live query with the same filter, order and
	// limit semantics as GetPosts. fn is called with the initial snapshot
	// and again whenever the result changes. Cancelling ctx also ends the
	// subscription.
	SubscribePosts(ctx context.Context, opts SubscribeOptions, fn SnapshotFunc) (Unsubscribe, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

// CommentRepository is the data-access contract for comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, postID string, input model.CommentInput, user *model.User) (string, error)

	// GetComment returns (nil, false, nil) for a missing comment.
	GetComment(ctx context.Context, id string) (*model.Comment, bool, error)

	// GetCommentsByPostID returns every comment of the post, oldest first.
	GetCommentsByPostID(ctx context.Context, postID string) ([]model.Comment, error)

	UpdateComment(ctx context.Context, id string, input model.CommentInput) error
	DeleteComment(ctx context.Context, id string) error
}

// UserRepository stores accounts signed in through GitHub.
type UserRepository interface {
	// Upsert inserts the user on first login (matched by GitHubID) and
	// refreshes the profile fields on later logins. user.ID is filled in.
	Upsert(ctx context.Context, user *model.User) error

	// GetUserByID fails with apperror.ErrNotFound for an unknown id.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Store bundles the repositories of one backend.
type Store interface {
	Posts() PostRepository
	Comments() CommentRepository
	Users() UserRepository
	Close() error
}

// PageLimit applies the default page size.
func PageLimit(n int) int {
	if n <= 0 {
		return DefaultPageLimit
	}
	return n
}

// PostsLimit applies the default list size.
func PostsLimit(n int) int {
	if n <= 0 {
		return DefaultPostsLimit
	}
	return n
}

// RealtimeLimit applies the default live-query size.
func RealtimeLimit(n int) int {
	if n <= 0 {
		return DefaultRealtimeLimit
	}
	return n
}
