package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

// PostService handles business logic for blog posts.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{repo: repo, logger: logger}
}

// Create validates input and stores a new post written by user. The stored
// post is read back so the caller sees the store-assigned id and times.
func (s *PostService) Create(ctx context.Context, user *model.User, input model.PostInput) (*model.Post, error) {
	if user == nil {
		return nil, apperror.Unauthorized("sign in required")
	}

	input, err := normalizePost(input)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.CreatePost(ctx, input, user)
	if err != nil {
		s.logger.Error("failed to create post",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", id),
		slog.String("category", string(input.Category)),
		slog.String("userID", user.ID),
	)

	return s.Get(ctx, id)
}

// List returns the newest posts. limit is clamped to 1..MaxListLimit, with
// 0 meaning repository.DefaultPostsLimit.
func (s *PostService) List(ctx context.Context, limit int) ([]model.PostSummary, error) {
	limit = clamp(limit, repository.DefaultPostsLimit, MaxListLimit)

	posts, err := s.repo.GetPosts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Page returns one page of the newest-first listing.
func (s *PostService) Page(ctx context.Context, opts repository.PageOptions) (*repository.PostPage, error) {
	opts.Limit = clamp(opts.Limit, repository.DefaultPageLimit, MaxPageLimit)

	page, err := s.repo.GetPostsWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("paging posts: %w", err)
	}
	return page, nil
}

// Get returns the post, or apperror.ErrNotFound.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	post, ok, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	return post, nil
}

// Update lets the author replace title, content and category.
func (s *PostService) Update(ctx context.Context, user *model.User, id string, input model.PostInput) (*model.Post, error) {
	input, err := normalizePost(input)
	if err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAuthor(user, current.AuthorID, "post"); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePost(ctx, id, input); err != nil {
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.String("id", id), slog.String("userID", user.ID))
	return s.Get(ctx, id)
}

// Delete lets the author remove a post. Deleting a post that is already
// gone succeeds. Its comments are left in place.
func (s *PostService) Delete(ctx context.Context, user *model.User, id string) error {
	current, ok, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("getting post: %w", err)
	}
	if !ok {
		return nil
	}
	if err := requireAuthor(user, current.AuthorID, "post"); err != nil {
		return err
	}

	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.String("id", id), slog.String("userID", user.ID))
	return nil
}

// Subscribe starts a live feed of the newest posts. The limit is clamped
// like List.
func (s *PostService) Subscribe(ctx context.Context, opts repository.SubscribeOptions, fn repository.SnapshotFunc) (repository.Unsubscribe, error) {
	opts.Limit = clamp(opts.Limit, repository.DefaultRealtimeLimit, MaxListLimit)

	unsubscribe, err := s.repo.SubscribePosts(ctx, opts, fn)
	if err != nil {
		return nil, fmt.Errorf("subscribing to posts: %w", err)
	}
	return unsubscribe, nil
}

// Ping reports whether the post store is reachable.
func (s *PostService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
