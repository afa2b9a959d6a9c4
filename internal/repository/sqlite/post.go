package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/realtime"
	"github.com/sakif/devblog/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

const summaryColumns = `id, title, category, author_email, author_display_name, created_at`

// CreatePost inserts a new post. CreatedAt and UpdatedAt get the same value
// and the author fields are copied from user.
func (db *DB) CreatePost(ctx context.Context, input model.PostInput, user *model.User) (string, error) {
	id := xid.New().String()
	now := nanos(db.now())

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, category, author_id, author_email, author_display_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		input.Title,
		input.Content,
		string(input.Category),
		user.ID,
		user.Email,
		user.Name(),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: creating post: %w", err)
	}

	db.hub.Notify(repository.PostsCollection)
	return id, nil
}

// GetPosts returns up to limit posts, newest first.
func (db *DB) GetPosts(ctx context.Context, limit int) ([]model.PostSummary, error) {
	return db.listSummaries(ctx, nil, repository.PostsLimit(limit))
}

// GetPost returns the full post, or ok == false when it does not exist.
func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, bool, error) {
	var (
		p                model.Post
		category         string
		created, updated int64
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, category, author_id, author_email, author_display_name, created_at, updated_at
		 FROM posts WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&category,
		&p.AuthorID,
		&p.AuthorEmail,
		&p.AuthorDisplayName,
		&created,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	p.Category = model.Category(category)
	p.CreatedAt = fromNanos(created)
	p.UpdatedAt = fromNanos(updated)
	return &p, true, nil
}

// UpdatePost overwrites the editable fields and refreshes updated_at.
// Author fields and created_at are left alone. updated_at always moves
// forward, by one nanosecond if the clock has not.
func (db *DB) UpdatePost(ctx context.Context, id string, input model.PostInput) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, content = ?, category = ?, updated_at = MAX(?, updated_at + 1)
		 WHERE id = ?`,
		input.Title,
		input.Content,
		string(input.Category),
		nanos(db.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	db.hub.Notify(repository.PostsCollection)
	return nil
}

// DeletePost removes the post. A missing post is not an error.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		db.hub.Notify(repository.PostsCollection)
	}
	return nil
}

// GetPostsWithOptions returns one newest-first page.
//
// It asks for limit+1 rows after the cursor. Getting the extra row back
// means another page exists; the extra row itself is not returned.
func (db *DB) GetPostsWithOptions(ctx context.Context, opts repository.PageOptions) (*repository.PostPage, error) {
	limit := repository.PageLimit(opts.Limit)

	q := newPostQuery(opts.Category)
	if !opts.LastDoc.IsZero() {
		at, id, err := opts.LastDoc.Decode()
		if err != nil {
			return nil, err
		}
		q.where("(created_at < ? OR (created_at = ? AND id < ?))", nanos(at), nanos(at), id)
	}

	posts, err := db.querySummaries(ctx, q, limit+1)
	if err != nil {
		return nil, err
	}

	page := &repository.PostPage{Posts: posts}
	if len(posts) > limit {
		page.Posts = posts[:limit]
		page.HasMore = true
	}
	if n := len(page.Posts); n > 0 {
		last := page.Posts[n-1]
		page.LastDoc = repository.NewCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// SubscribePosts starts a live query over the newest posts.
func (db *DB) SubscribePosts(ctx context.Context, opts repository.SubscribeOptions, fn repository.SnapshotFunc) (repository.Unsubscribe, error) {
	limit := repository.RealtimeLimit(opts.Limit)
	changes, release := db.hub.Listen(repository.PostsCollection)

	stop := realtime.Run(ctx, realtime.Query[model.PostSummary]{
		Fetch: func(ctx context.Context) ([]model.PostSummary, error) {
			return db.listSummaries(ctx, opts.Category, limit)
		},
		Changes:    changes,
		OnSnapshot: fn,
		OnError:    opts.OnError,
		Equal:      repository.SameSnapshot,
	}, release)

	return repository.Unsubscribe(stop), nil
}

func (db *DB) listSummaries(ctx context.Context, category *model.Category, limit int) ([]model.PostSummary, error) {
	return db.querySummaries(ctx, newPostQuery(category), limit)
}

// postQuery accumulates WHERE conditions for the summary listing.
type postQuery struct {
	conds []string
	args  []any
}

func newPostQuery(category *model.Category) *postQuery {
	q := &postQuery{}
	if category != nil {
		q.where("category = ?", string(*category))
	}
	return q
}

func (q *postQuery) where(cond string, args ...any) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

func (db *DB) querySummaries(ctx context.Context, q *postQuery, limit int) ([]model.PostSummary, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + summaryColumns + " FROM posts")
	if len(q.conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(q.conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")

	rows, err := db.conn.QueryContext(ctx, sb.String(), append(q.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.PostSummary, 0, limit)
	for rows.Next() {
		var (
			s        model.PostSummary
			category string
			created  int64
		)
		if err := rows.Scan(&s.ID, &s.Title, &category, &s.AuthorEmail, &s.AuthorDisplayName, &created); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		s.Category = model.Category(category)
		s.CreatedAt = fromNanos(created)
		posts = append(posts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}
