package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errStore = errors.New("store is on fire")

// fakePostRepo is an in-memory repository.PostRepository. It records the
// options it was called with so tests can check the clamping.
type fakePostRepo struct {
	posts  map[string]*model.Post
	nextID int

	lastLimit     int
	lastPage      repository.PageOptions
	lastSubscribe repository.SubscribeOptions

	err error // returned by every method when set
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*model.Post)}
}

func (f *fakePostRepo) CreatePost(ctx context.Context, input model.PostInput, user *model.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	id := "post-" + strconv.Itoa(f.nextID)
	now := time.Now()
	f.posts[id] = &model.Post{
		ID:                id,
		Title:             input.Title,
		Content:           input.Content,
		Category:          input.Category,
		AuthorID:          user.ID,
		AuthorEmail:       user.Email,
		AuthorDisplayName: user.Name(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return id, nil
}

func (f *fakePostRepo) GetPosts(ctx context.Context, limit int) ([]model.PostSummary, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := []model.PostSummary{}
	for _, p := range f.posts {
		out = append(out, p.Summary())
	}
	return out, nil
}

func (f *fakePostRepo) GetPost(ctx context.Context, id string) (*model.Post, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, false, nil
	}
	copied := *p
	return &copied, true, nil
}

func (f *fakePostRepo) UpdatePost(ctx context.Context, id string, input model.PostInput) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return apperror.NotFound("post", id)
	}
	p.Title, p.Content, p.Category = input.Title, input.Content, input.Category
	p.UpdatedAt = time.Now()
	return nil
}

func (f *fakePostRepo) DeletePost(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) GetPostsWithOptions(ctx context.Context, opts repository.PageOptions) (*repository.PostPage, error) {
	f.lastPage = opts
	if f.err != nil {
		return nil, f.err
	}
	return &repository.PostPage{Posts: []model.PostSummary{}}, nil
}

func (f *fakePostRepo) SubscribePosts(ctx context.Context, opts repository.SubscribeOptions, fn repository.SnapshotFunc) (repository.Unsubscribe, error) {
	f.lastSubscribe = opts
	if f.err != nil {
		return nil, f.err
	}
	fn([]model.PostSummary{})
	return func() {}, nil
}

func (f *fakePostRepo) Ping(ctx context.Context) error {
	return f.err
}

// fakeCommentRepo is an in-memory repository.CommentRepository.
type fakeCommentRepo struct {
	comments map[string]*model.Comment
	nextID   int
	err      error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: make(map[string]*model.Comment)}
}

func (f *fakeCommentRepo) CreateComment(ctx context.Context, postID string, input model.CommentInput, user *model.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	id := "comment-" + strconv.Itoa(f.nextID)
	now := time.Now()
	f.comments[id] = &model.Comment{
		ID:                id,
		PostID:            postID,
		Content:           input.Content,
		AuthorID:          user.ID,
		AuthorEmail:       user.Email,
		AuthorDisplayName: user.Name(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return id, nil
}

func (f *fakeCommentRepo) GetComment(ctx context.Context, id string) (*model.Comment, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, false, nil
	}
	copied := *c
	return &copied, true, nil
}

func (f *fakeCommentRepo) GetCommentsByPostID(ctx context.Context, postID string) ([]model.Comment, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Comment{}
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, *c)
		}
	}
	repository.SortCommentsOldestFirst(out)
	return out, nil
}

func (f *fakeCommentRepo) UpdateComment(ctx context.Context, id string, input model.CommentInput) error {
	if f.err != nil {
		return f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return apperror.NotFound("comment", id)
	}
	c.Content = input.Content
	c.UpdatedAt = time.Now()
	return nil
}

func (f *fakeCommentRepo) DeleteComment(ctx context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.comments, id)
	return nil
}

var (
	alice = &model.User{ID: "alice", Login: "alice", Email: "alice@example.com", DisplayName: "Alice"}
	bob   = &model.User{ID: "bob", Login: "bob", Email: "bob@example.com"}
)

func validPost() model.PostInput {
	return model.PostInput{Title: "Hello", Content: "World", Category: model.CategoryTech}
}
