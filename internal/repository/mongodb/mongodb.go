// Package mongodb implements the blog repositories on MongoDB.
//
// Documents keep the camelCase field names of the public model. Ids are
// ObjectIDs, exposed as their hex string. BSON datetimes have millisecond
// precision, so every timestamp written here is truncated to the
// millisecond; page cursors built from read-back values then match the
// stored values exactly.
//
// Live queries are driven by change streams on the posts collection, which
// requires the server to run as a replica set (a single-node set is
// enough).
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/sakif/devblog/internal/repository"
)

// DB is the MongoDB store.
type DB struct {
	client   *mongo.Client
	posts    *mongo.Collection
	comments *mongo.Collection
	users    *mongo.Collection
	logger   *slog.Logger
	now      func() time.Time
}

var _ repository.Store = (*DB)(nil)

// Option customises a DB.
type Option func(*DB)

// WithClock replaces time.Now as the source of document timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// Connect dials uri, checks the primary is reachable and makes sure the
// indexes the listing queries rely on exist.
func Connect(ctx context.Context, uri, dbName string, logger *slog.Logger, opts ...Option) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging primary: %w", err)
	}

	database := client.Database(dbName)
	db := &DB{
		client:   client,
		posts:    database.Collection(repository.PostsCollection),
		comments: database.Collection(repository.CommentsCollection),
		users:    database.Collection(repository.UsersCollection),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to mongodb", "database", dbName)
	return db, nil
}

// EnsureIndexes creates the indexes used by listings, comment lookups and
// the login upsert. Creating an existing index is a no-op.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("createdAt_id")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}, Options: options.Index().SetName("category_createdAt_id")},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating post indexes: %w", err)
	}

	_, err = db.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "postId", Value: 1}},
		Options: options.Index().SetName("postId"),
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating comment indexes: %w", err)
	}

	_, err = db.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "githubId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_githubId"),
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating user indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb: ping: %w", err)
	}
	return nil
}

func (db *DB) Posts() repository.PostRepository       { return db }
func (db *DB) Comments() repository.CommentRepository { return db }
func (db *DB) Users() repository.UserRepository       { return db }

// timestamp returns the current time at the precision BSON stores.
func (db *DB) timestamp() time.Time {
	return db.now().UTC().Truncate(time.Millisecond)
}
