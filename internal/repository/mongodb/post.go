package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/realtime"
	"github.com/sakif/devblog/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

func (db *DB) CreatePost(ctx context.Context, input model.PostInput, user *model.User) (string, error) {
	now := db.timestamp()
	doc := postDoc{
		ID:                bson.NewObjectID(),
		Title:             input.Title,
		Content:           input.Content,
		Category:          string(input.Category),
		AuthorID:          user.ID,
		AuthorEmail:       user.Email,
		AuthorDisplayName: user.Name(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := db.posts.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("mongodb: creating post: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (db *DB) GetPosts(ctx context.Context, limit int) ([]model.PostSummary, error) {
	return db.findSummaries(ctx, bson.D{}, repository.PostsLimit(limit))
}

// GetPost returns ok == false for a missing post, including ids that are
// not valid ObjectIDs.
func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, bool, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, false, nil
	}

	var doc postDoc
	err := db.posts.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("mongodb: getting post %s: %w", id, err)
	}
	return doc.toPost(), true, nil
}

func (db *DB) UpdatePost(ctx context.Context, id string, input model.PostInput) error {
	oid, ok := parseID(id)
	if !ok {
		return apperror.NotFound("post", id)
	}

	res, err := db.posts.UpdateByID(ctx, oid, touchUpdate(db.timestamp(), bson.D{
		{Key: "title", Value: input.Title},
		{Key: "content", Value: input.Content},
		{Key: "category", Value: string(input.Category)},
	}))
	if err != nil {
		return fmt.Errorf("mongodb: updating post %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

func (db *DB) DeletePost(ctx context.Context, id string) error {
	oid, ok := parseID(id)
	if !ok {
		return nil
	}
	if _, err := db.posts.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return fmt.Errorf("mongodb: deleting post %s: %w", id, err)
	}
	return nil
}

func (db *DB) GetPostsWithOptions(ctx context.Context, opts repository.PageOptions) (*repository.PostPage, error) {
	limit := repository.PageLimit(opts.Limit)

	filter, err := postFilter(opts.Category, opts.LastDoc)
	if err != nil {
		return nil, err
	}

	posts, err := db.findSummaries(ctx, filter, limit+1)
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

// SubscribePosts opens a change stream on the posts collection and re-runs
// the listing whenever it reports a change. A failure of the stream itself
// ends the subscription through opts.OnError, the same as a failed fetch.
func (db *DB) SubscribePosts(ctx context.Context, opts repository.SubscribeOptions, fn repository.SnapshotFunc) (repository.Unsubscribe, error) {
	limit := repository.RealtimeLimit(opts.Limit)
	filter, _ := postFilter(opts.Category, "")

	watchCtx, cancel := context.WithCancel(ctx)
	stream, err := db.posts.Watch(watchCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mongodb: watching posts: %w", err)
	}

	onError := onceError(opts.OnError)
	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)
		defer stream.Close(context.Background())

		for stream.Next(watchCtx) {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			db.logger.Warn("posts change stream failed", "error", err)
			if onError != nil {
				onError(fmt.Errorf("mongodb: posts change stream: %w", err))
			}
		}
	}()

	stop := realtime.Run(ctx, realtime.Query[model.PostSummary]{
		Fetch: func(ctx context.Context) ([]model.PostSummary, error) {
			return db.findSummaries(ctx, filter, limit)
		},
		Changes:    changes,
		OnSnapshot: fn,
		OnError:    onError,
		Equal:      repository.SameSnapshot,
	}, cancel)

	return repository.Unsubscribe(stop), nil
}

func (db *DB) findSummaries(ctx context.Context, filter bson.D, limit int) ([]model.PostSummary, error) {
	cur, err := db.posts.Find(ctx, filter, summaryFindOptions(limit))
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing posts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongodb: decoding posts: %w", err)
	}

	posts := make([]model.PostSummary, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, d.toSummary())
	}
	return posts, nil
}

// onceError wraps fn so that only the first error reaches it. The stream
// goroutine and the fetch loop can both fail.
func onceError(fn func(error)) func(error) {
	if fn == nil {
		return nil
	}
	var once sync.Once
	return func(err error) {
		once.Do(func() { fn(err) })
	}
}
