package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

// Upsert matches on githubId in a single round trip. _id and createdAt are
// only written on insert.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := db.timestamp()

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "login", Value: user.Login},
			{Key: "email", Value: user.Email},
			{Key: "displayName", Value: user.DisplayName},
			{Key: "avatarUrl", Value: user.AvatarURL},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: bson.NewObjectID()},
			{Key: "createdAt", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc userDoc
	err := db.users.FindOneAndUpdate(ctx, bson.D{{Key: "githubId", Value: user.GitHubID}}, update, opts).Decode(&doc)
	if err != nil {
		return fmt.Errorf("mongodb: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	*user = *doc.toUser()
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, apperror.NotFound("user", id)
	}

	var doc userDoc
	err := db.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("mongodb: getting user %s: %w", id, err)
	}
	return doc.toUser(), nil
}
