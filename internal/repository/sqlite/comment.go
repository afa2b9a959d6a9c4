package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// CreateComment inserts a comment on postID. The post is not checked here;
// that is the service's job.
func (db *DB) CreateComment(ctx context.Context, postID string, input model.CommentInput, user *model.User) (string, error) {
	id := xid.New().String()
	now := nanos(db.now())

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, content, author_id, author_email, author_display_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		postID,
		input.Content,
		user.ID,
		user.Email,
		user.Name(),
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: creating comment: %w", err)
	}

	db.hub.Notify(repository.CommentsCollection)
	return id, nil
}

// GetComment returns the comment, or ok == false when it does not exist.
func (db *DB) GetComment(ctx context.Context, id string) (*model.Comment, bool, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, post_id, content, author_id, author_email, author_display_name, created_at, updated_at
		 FROM comments WHERE id = ?`,
		id,
	)

	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	return &c, true, nil
}

// GetCommentsByPostID returns the post's comments, oldest first.
//
// The query deliberately has no ORDER BY: ordering happens after the fetch
// with repository.SortCommentsOldestFirst, which also handles comments that
// have no timestamp.
func (db *DB) GetCommentsByPostID(ctx context.Context, postID string) ([]model.Comment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, post_id, content, author_id, author_email, author_display_name, created_at, updated_at
		 FROM comments WHERE post_id = ?`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments of post %s: %w", postID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}

	repository.SortCommentsOldestFirst(comments)
	return comments, nil
}

// UpdateComment replaces the content and moves updated_at forward, as
// UpdatePost does. A legacy NULL updated_at counts as zero.
func (db *DB) UpdateComment(ctx context.Context, id string, input model.CommentInput) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = MAX(?, COALESCE(updated_at, 0) + 1) WHERE id = ?`,
		input.Content,
		nanos(db.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("comment", id)
	}

	db.hub.Notify(repository.CommentsCollection)
	return nil
}

// DeleteComment removes the comment. A missing comment is not an error.
func (db *DB) DeleteComment(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		db.hub.Notify(repository.CommentsCollection)
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (model.Comment, error) {
	var (
		c                model.Comment
		created, updated sql.NullInt64
	)
	if err := s.Scan(
		&c.ID,
		&c.PostID,
		&c.Content,
		&c.AuthorID,
		&c.AuthorEmail,
		&c.AuthorDisplayName,
		&created,
		&updated,
	); err != nil {
		return model.Comment{}, err
	}
	c.CreatedAt = fromNullNanos(created)
	c.UpdatedAt = fromNullNanos(updated)
	return c, nil
}
