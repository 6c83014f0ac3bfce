package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/blogicum/internal/metrics"
	"github.com/example/blogicum/internal/models"
	"github.com/example/blogicum/internal/policy"
	"github.com/example/blogicum/internal/validation"
)

type CommentInput struct {
	Text string `form:"text" validate:"required"`
}

type CommentService struct {
	store Store
	log   zerolog.Logger
}

// Create adds a comment by viewer to an existing post.
func (s *CommentService) Create(ctx context.Context, viewer *models.User, postID uint, in CommentInput) (*models.Comment, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", postID, err)
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(&in).Err(); err != nil {
		return nil, err
	}

	comment := &models.Comment{Text: in.Text, PostID: postID, AuthorID: viewer.ID}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = viewer

	metrics.RecordWrite("comment", "create")
	s.log.Info().Uint("post_id", postID).Uint("comment_id", comment.ID).Str("author", viewer.Username).Msg("comment created")
	return comment, nil
}

// Lookup finds a comment that belongs to postID and that viewer may modify.
func (s *CommentService) Lookup(ctx context.Context, viewer *models.User, postID, commentID uint) (*models.Comment, Outcome, error) {
	comment, err := s.store.GetComment(ctx, commentID)
	if notFound(err) {
		return nil, NotFound, nil
	}
	if err != nil {
		return nil, NotFound, fmt.Errorf("get comment %d: %w", commentID, err)
	}
	if comment.PostID != postID {
		return nil, NotFound, nil
	}
	if !policy.CanModifyComment(viewer, comment) {
		return comment, Forbidden, nil
	}
	return comment, Found, nil
}

// Update replaces a comment's text. Post, author and creation time are kept.
func (s *CommentService) Update(ctx context.Context, viewer *models.User, postID, commentID uint, in CommentInput) (*models.Comment, Outcome, error) {
	comment, outcome, err := s.Lookup(ctx, viewer, postID, commentID)
	if err != nil || outcome != Found {
		return comment, outcome, err
	}
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Struct(&in).Err(); err != nil {
		return comment, Found, err
	}

	comment.Text = in.Text
	if err := s.store.UpdateComment(ctx, comment); err != nil {
		if notFound(err) {
			return nil, NotFound, nil
		}
		return comment, Found, fmt.Errorf("update comment %d: %w", commentID, err)
	}

	metrics.RecordWrite("comment", "update")
	s.log.Info().Uint("comment_id", commentID).Str("author", viewer.Username).Msg("comment updated")
	return comment, Found, nil
}

func (s *CommentService) Delete(ctx context.Context, viewer *models.User, postID, commentID uint) (Outcome, error) {
	comment, outcome, err := s.Lookup(ctx, viewer, postID, commentID)
	if err != nil || outcome != Found {
		return outcome, err
	}
	if err := s.store.DeleteComment(ctx, comment); err != nil {
		if notFound(err) {
			return NotFound, nil
		}
		return Found, fmt.Errorf("delete comment %d: %w", commentID, err)
	}

	metrics.RecordWrite("comment", "delete")
	s.log.Info().Uint("comment_id", commentID).Str("author", viewer.Username).Msg("comment deleted")
	return Found, nil
}
