package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

func (db *DB) CreateComment(ctx context.Context, postID string, input model.CommentInput, user *model.User) (string, error) {
	now := db.timestamp()
	doc := commentDoc{
		ID:                bson.NewObjectID(),
		PostID:            postID,
		Content:           input.Content,
		AuthorID:          user.ID,
		AuthorEmail:       user.Email,
		AuthorDisplayName: user.Name(),
		CreatedAt:         &now,
		UpdatedAt:         &now,
	}

	if _, err := db.comments.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongodb: creating comment: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (db *DB) GetComment(ctx context.Context, id string) (*model.Comment, bool, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, false, nil
	}

	var doc commentDoc
	err := db.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongodb: getting comment %s: %w", id, err)
	}
	c := doc.toComment()
	return &c, true, nil
}

// GetCommentsByPostID does a plain equality match and sorts in memory, so
// the query needs no compound index.
func (db *DB) GetCommentsByPostID(ctx context.Context, postID string) ([]model.Comment, error) {
	cur, err := db.comments.Find(ctx, bson.D{{Key: "postId", Value: postID}})
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing comments of post %s: %w", postID, err)
	}
	defer cur.Close(ctx)

	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decoding comments: %w", err)
	}

	comments := make([]model.Comment, 0, len(docs))
	for _, d := range docs {
		comments = append(comments, d.toComment())
	}
	repository.SortCommentsOldestFirst(comments)
	return comments, nil
}

func (db *DB) UpdateComment(ctx context.Context, id string, input model.CommentInput) error {
	oid, ok := parseID(id)
	if !ok {
		return apperror.NotFound("comment", id)
	}

	res, err := db.comments.UpdateByID(ctx, oid, touchUpdate(db.timestamp(), bson.D{
		{Key: "content", Value: input.Content},
	}))
	if err != nil {
		return fmt.Errorf("mongodb: updating comment %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}

func (db *DB) DeleteComment(ctx context.Context, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return nil
	}
	if _, err := db.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return fmt.Errorf("mongodb: deleting comment %s: %w", id, err)
	}
	return nil
}
