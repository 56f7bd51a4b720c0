package repository

import (
	"context"
	"errors"

	"github.com/Baaaki/newsletter-app/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrSlugTaken       = errors.New("slug already in use")
	ErrVersionMismatch = errors.New("post version mismatch")
)

// PostFilter narrows List and Count.
type PostFilter struct {
	PublishedOnly bool
}

// PostRepository persists posts keyed by a stable id with a unique slug.
// Writes after creation are compare-and-swap on Post.Version: they apply
// only when the stored version equals expectedVersion and bump it by one.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post, expectedVersion int64) (*models.Post, error)
	UpdateReactions(ctx context.Context, id string, expectedVersion int64, likes, dislikes []string) (*models.Post, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter PostFilter, offset, limit int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
}

// CommentRepository stores comments; ListByPost returns newest first.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
