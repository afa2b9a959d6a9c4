package sqlite

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
)

func createTestComment(t *testing.T, db *DB, postID, content string) string {
	t.Helper()
	id, err := db.CreateComment(context.Background(), postID, model.CommentInput{Content: content}, testAuthor)
	if err != nil {
		t.Fatalf("failed to create test comment: %v", err)
	}
	return id
}

func contents(comments []model.Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.Content
	}
	return out
}

func TestCreateComment_ThenGetComment(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	id := createTestComment(t, db, "post-1", "nice post")

	c, ok, err := db.GetComment(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "post-1", c.PostID)
	assert.Equal(t, "nice post", c.Content)
	assert.Equal(t, testAuthor.ID, c.AuthorID)
	assert.Equal(t, testAuthor.Email, c.AuthorEmail)
	assert.Equal(t, testAuthor.DisplayName, c.AuthorDisplayName)
	assert.True(t, c.CreatedAt.Equal(c.UpdatedAt))

	_, ok, err = db.GetComment(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetCommentsByPostID_OldestFirst(t *testing.T) {
	db, clock := newTestDB(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Inserted with timestamps 3, 1, 2.
	for _, m := range []int{3, 1, 2} {
		clock.Set(base.Add(time.Duration(m) * time.Minute))
		createTestComment(t, db, "post-1", strconv.Itoa(m))
	}
	createTestComment(t, db, "post-2", "elsewhere")

	comments, err := db.GetCommentsByPostID(context.Background(), "post-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, contents(comments))
	for _, c := range comments {
		assert.Equal(t, "post-1", c.PostID)
	}
}

func TestGetCommentsByPostID_MissingTimestampSortsFirst(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	createTestComment(t, db, "post-1", "stamped")

	// A document written without timestamps, e.g. by an older client.
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, content, author_id) VALUES ('legacy', 'post-1', 'unstamped', 'u0')`)
	require.NoError(t, err)

	comments, err := db.GetCommentsByPostID(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"unstamped", "stamped"}, contents(comments))
	assert.True(t, comments[0].CreatedAt.IsZero())
}

func TestGetCommentsByPostID_None(t *testing.T) {
	db, _ := newTestDB(t)

	comments, err := db.GetCommentsByPostID(context.Background(), "post-without-comments")
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestUpdateComment(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()
	id := createTestComment(t, db, "post-1", "typo")

	before, _, err := db.GetComment(ctx, id)
	require.NoError(t, err)

	require.NoError(t, db.UpdateComment(ctx, id, model.CommentInput{Content: "fixed"}))

	after, _, err := db.GetComment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fixed", after.Content)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
	assert.Equal(t, before.AuthorID, after.AuthorID)
}

func TestUpdateComment_Missing(t *testing.T) {
	db, _ := newTestDB(t)

	err := db.UpdateComment(context.Background(), "nope", model.CommentInput{Content: "x"})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDeleteComment_Idempotent(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()
	id := createTestComment(t, db, "post-1", "bye")

	require.NoError(t, db.DeleteComment(ctx, id))
	require.NoError(t, db.DeleteComment(ctx, id))

	_, ok, err := db.GetComment(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeletePost_LeavesCommentsBehind(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	postID := createTestPost(t, db, "parent", model.CategoryTech)
	createTestComment(t, db, postID, "orphan to be")

	require.NoError(t, db.DeletePost(ctx, postID))

	comments, err := db.GetCommentsByPostID(ctx, postID)
	require.NoError(t, err)
	assert.Len(t, comments, 1, "deleting a post does not cascade to its comments")
}

func TestUpdateComment_UpdatedAtAdvancesOnStalledClock(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()
	clock.mu.Lock()
	clock.step = 0
	clock.mu.Unlock()

	postID := createTestPost(t, db, "host", model.CategoryTech)
	id := createTestComment(t, db, postID, "first")

	require.NoError(t, db.UpdateComment(ctx, id, model.CommentInput{Content: "second"}))
	c, ok, err := db.GetComment(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, c.UpdatedAt.After(c.CreatedAt))
}

func TestUpdateComment_LegacyNullTimestamp(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, content, author_id) VALUES ('legacy-upd', 'p', 'old', ?)`, testAuthor.ID)
	require.NoError(t, err)

	require.NoError(t, db.UpdateComment(ctx, "legacy-upd", model.CommentInput{Content: "new"}))
	c, ok, err := db.GetComment(ctx, "legacy-upd")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, c.UpdatedAt.IsZero(), "gets a real timestamp")
	assert.True(t, c.CreatedAt.IsZero())
}
