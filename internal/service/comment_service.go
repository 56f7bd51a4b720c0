package service

import (
	"context"
	"unicode/utf8"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxCommentLength = 1000

type CommentService struct {
	comments repository.CommentRepository
	posts    *PostService
	users    UserDirectory
}

func NewCommentService(comments repository.CommentRepository, posts *PostService, users UserDirectory) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
	}
}

func (s *CommentService) AddComment(ctx context.Context, actorID, slug, content string) (*models.CommentView, error) {
	text := utils.SanitizeText(content)
	if text == "" {
		return nil, validationError("please provide comment content")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, validationError("comment cannot be more than %d characters", MaxCommentLength)
	}

	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		logger.Log.Warn("Comment by unknown user", zap.String("user_id", actorID))
		return nil, forbiddenError("user not found")
	}

	post, err := s.posts.loadPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ID:       uuid.NewString(),
		PostID:   post.ID,
		AuthorID: actor.ID,
		Content:  text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.String("post_id", post.ID),
			zap.String("user_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment added",
		zap.String("comment_id", comment.ID),
		zap.String("post_id", post.ID),
		zap.String("user_id", actor.ID),
	)

	return toCommentView(comment, actor), nil
}

// ListComments returns the post's comments newest first, leaving out
// those whose author no longer resolves.
func (s *CommentService) ListComments(ctx context.Context, slug string) ([]*models.CommentView, error) {
	post, err := s.posts.loadPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		logger.Log.Error("Failed to list comments", zap.String("post_id", post.ID), zap.Error(err))
		return nil, err
	}

	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}
	authors, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.CommentView, 0, len(comments))
	for _, c := range comments {
		if author, ok := authors[c.AuthorID]; ok {
			views = append(views, toCommentView(c, author))
		}
	}
	return views, nil
}

func toCommentView(c *models.Comment, author *models.User) *models.CommentView {
	return &models.CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		Author:    author.Summary(),
		CreatedAt: c.CreatedAt,
	}
}
