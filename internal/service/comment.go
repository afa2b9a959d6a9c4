package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/devblog/internal/apperror"
	"github.com/sakif/devblog/internal/model"
	"github.com/sakif/devblog/internal/repository"
)

// CommentService handles business logic for comments. It needs the post
// repository to check that a post exists before commenting on it.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, posts: posts, logger: logger}
}

// Create adds a comment by user to the post postID.
func (s *CommentService) Create(ctx context.Context, user *model.User, postID string, input model.CommentInput) (*model.Comment, error) {
	if user == nil {
		return nil, apperror.Unauthorized("sign in required")
	}

	input, err := normalizeComment(input)
	if err != nil {
		return nil, err
	}

	_, ok, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("getting post: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("post", postID)
	}

	id, err := s.comments.CreateComment(ctx, postID, input, user)
	if err != nil {
		s.logger.Error("failed to create comment",
			slog.String("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.String("id", id),
		slog.String("postID", postID),
		slog.String("userID", user.ID),
	)

	return s.get(ctx, id)
}

// ListByPost returns the post's comments, oldest first. A post without
// comments, or one that does not exist, gives an empty list.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	comments, err := s.comments.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Update(ctx context.Context, user *model.User, id string, input model.CommentInput) (*model.Comment, error) {
	input, err := normalizeComment(input)
	if err != nil {
		return nil, err
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAuthor(user, current.AuthorID, "comment"); err != nil {
		return nil, err
	}

	if err := s.comments.UpdateComment(ctx, id, input); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}

	s.logger.Info("comment updated", slog.String("id", id), slog.String("userID", user.ID))
	return s.get(ctx, id)
}

// Delete removes the comment if user wrote it. A missing comment is not
// an error.
func (s *CommentService) Delete(ctx context.Context, user *model.User, id string) error {
	current, ok, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return fmt.Errorf("getting comment: %w", err)
	}
	if !ok {
		return nil
	}
	if err := requireAuthor(user, current.AuthorID, "comment"); err != nil {
		return err
	}

	if err := s.comments.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	s.logger.Info("comment deleted", slog.String("id", id), slog.String("userID", user.ID))
	return nil
}

func (s *CommentService) get(ctx context.Context, id string) (*model.Comment, error) {
	c, ok, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting comment: %w", err)
	}
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	return c, nil
}
