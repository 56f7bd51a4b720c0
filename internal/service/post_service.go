package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Baaaki/newsletter-app/internal/broker"
	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/repository"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxTitleLength   = 200
	MaxExcerptLength = 500

	DefaultPageSize = 10
	MaxPageSize     = 100
)

// UserDirectory resolves user ids for authorization and author expansion.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

type CreatePostInput struct {
	Title      string
	Content    string
	Excerpt    string
	CoverImage string
	Tags       []string
	Published  bool
}

// UpdatePostInput is a partial patch: nil fields are left untouched, and
// so are a blank Title or Content. A non-nil empty Tags slice clears the
// tags.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	Excerpt    *string
	CoverImage *string
	Tags       []string
	Published  *bool
}

type ListPostsQuery struct {
	Page          int
	Limit         int
	PublishedOnly bool
}

type ReactionResult struct {
	Post     *models.PostView
	Reaction models.ReactionState
}

type PostService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	users    UserDirectory
	events   broker.EventPublisher
}

func NewPostService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	users UserDirectory,
	events broker.EventPublisher,
) *PostService {
	if events == nil {
		events = broker.NopPublisher{}
	}
	return &PostService{
		posts:    posts,
		comments: comments,
		users:    users,
		events:   events,
	}
}

func (s *PostService) Create(ctx context.Context, actorID string, in CreatePostInput) (*models.PostView, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, validationError("please provide title and content")
	}

	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		logger.Log.Error("Failed to load post author", zap.String("user_id", actorID), zap.Error(err))
		return nil, err
	}
	if !CanCreatePost(actor) {
		logger.Log.Warn("Post creation rejected: not an admin", zap.String("user_id", actorID))
		return nil, forbiddenError("only admins can create posts")
	}

	title, slug, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := cleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	excerpt, err := cleanExcerpt(in.Excerpt)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:         uuid.NewString(),
		Slug:       slug,
		Title:      title,
		Content:    content,
		Excerpt:    excerpt,
		CoverImage: strings.TrimSpace(in.CoverImage),
		AuthorID:   actor.ID,
		Published:  in.Published,
		Tags:       cleanTags(in.Tags),
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			logger.Log.Warn("Post slug already taken", zap.String("slug", slug))
			return nil, ErrSlugTaken
		}
		logger.Log.Error("Failed to create post", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Post created",
		zap.String("post_id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("author_id", actor.ID),
		zap.Bool("published", post.Published),
	)
	s.publish(ctx, broker.EventPostCreated, post, actor.ID)

	return toPostView(post, actor), nil
}

func (s *PostService) Get(ctx context.Context, slug string) (*models.PostView, error) {
	post, err := s.loadPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, post.AuthorID)
	if err != nil {
		logger.Log.Error("Failed to load post author", zap.String("post_id", post.ID), zap.Error(err))
		return nil, err
	}
	return toPostView(post, author), nil
}

func (s *PostService) Update(ctx context.Context, actorID, slug string, in UpdatePostInput) (*models.PostView, error) {
	actor, post, err := s.authorize(ctx, actorID, slug, "edit")
	if err != nil {
		return nil, err
	}

	next := post.Clone()
	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		title, newSlug, err := cleanTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		if title != post.Title {
			if newSlug != post.Slug {
				existing, err := s.posts.GetBySlug(ctx, newSlug)
				switch {
				case err == nil && existing.ID != post.ID:
					logger.Log.Warn("Rename collides with another post",
						zap.String("post_id", post.ID),
						zap.String("slug", newSlug),
					)
					return nil, ErrSlugTaken
				case err != nil && !errors.Is(err, repository.ErrPostNotFound):
					return nil, err
				}
			}
			next.Title = title
			next.Slug = newSlug
		}
	}
	if in.Content != nil && strings.TrimSpace(*in.Content) != "" {
		content, err := cleanContent(*in.Content)
		if err != nil {
			return nil, err
		}
		next.Content = content
	}
	if in.Excerpt != nil {
		excerpt, err := cleanExcerpt(*in.Excerpt)
		if err != nil {
			return nil, err
		}
		next.Excerpt = excerpt
	}
	if in.CoverImage != nil {
		next.CoverImage = strings.TrimSpace(*in.CoverImage)
	}
	if in.Tags != nil {
		next.Tags = cleanTags(in.Tags)
	}
	if in.Published != nil {
		next.Published = *in.Published
	}

	updated, err := s.posts.Update(ctx, next, post.Version)
	if err != nil {
		return nil, s.mapWriteError(err, post)
	}

	logger.Log.Info("Post updated",
		zap.String("post_id", updated.ID),
		zap.String("old_slug", post.Slug),
		zap.String("slug", updated.Slug),
		zap.String("actor_id", actor.ID),
	)
	s.publish(ctx, broker.EventPostUpdated, updated, actor.ID)

	author := actor
	if updated.AuthorID != actor.ID {
		if author, err = s.users.GetUserByID(ctx, updated.AuthorID); err != nil {
			return nil, err
		}
	}
	return toPostView(updated, author), nil
}

// Delete removes the post and then its comments. Comments left behind by
// a failed cascade are unreachable, since every comment read goes through
// the post's slug.
func (s *PostService) Delete(ctx context.Context, actorID, slug string) error {
	actor, post, err := s.authorize(ctx, actorID, slug, "delete")
	if err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		logger.Log.Error("Failed to delete post", zap.String("post_id", post.ID), zap.Error(err))
		return err
	}

	removed, err := s.comments.DeleteByPost(ctx, post.ID)
	if err != nil {
		logger.Log.Error("Failed to delete comments of removed post",
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
	}

	logger.Log.Info("Post deleted",
		zap.String("post_id", post.ID),
		zap.String("slug", post.Slug),
		zap.String("actor_id", actor.ID),
		zap.Int64("comments_removed", removed),
	)
	s.publish(ctx, broker.EventPostDeleted, post, actor.ID)
	return nil
}

func (s *PostService) React(ctx context.Context, actorID, slug string, action models.ReactionAction) (*ReactionResult, error) {
	if !action.Valid() {
		return nil, ErrInvalidAction
	}

	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, forbiddenError("user not found")
	}

	post, err := s.loadPost(ctx, slug)
	if err != nil {
		return nil, err
	}

	likes, dislikes, err := ApplyReaction(post.Likes, post.Dislikes, actor.ID, action)
	if err != nil {
		return nil, err
	}

	updated, err := s.posts.UpdateReactions(ctx, post.ID, post.Version, likes, dislikes)
	if err != nil {
		return nil, s.mapWriteError(err, post)
	}

	state := updated.ReactionOf(actor.ID)
	logger.Log.Debug("Post reaction toggled",
		zap.String("post_id", updated.ID),
		zap.String("user_id", actor.ID),
		zap.String("action", string(action)),
		zap.String("state", string(state)),
	)
	s.publish(ctx, broker.EventPostReacted, updated, actor.ID)

	author, err := s.users.GetUserByID(ctx, updated.AuthorID)
	if err != nil {
		return nil, err
	}
	return &ReactionResult{Post: toPostView(updated, author), Reaction: state}, nil
}

// List returns one page of posts, newest first. Posts whose author no
// longer resolves are left out of the page but still counted in total.
func (s *PostService) List(ctx context.Context, q ListPostsQuery) ([]*models.PostView, *models.Pagination, error) {
	page, limit := normalizePage(q.Page, q.Limit)
	filter := repository.PostFilter{PublishedOnly: q.PublishedOnly}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		logger.Log.Error("Failed to count posts", zap.Error(err))
		return nil, nil, err
	}

	posts, err := s.posts.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		logger.Log.Error("Failed to list posts", zap.Error(err))
		return nil, nil, err
	}

	authorIDs := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; !ok {
			seen[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}
	authors, err := s.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		logger.Log.Error("Failed to resolve post authors", zap.Error(err))
		return nil, nil, err
	}

	views := make([]*models.PostView, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			logger.Log.Debug("Skipping post with unresolved author",
				zap.String("post_id", p.ID),
				zap.String("author_id", p.AuthorID),
			)
			continue
		}
		views = append(views, toPostView(p, author))
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return views, &models.Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// authorize loads actor and post and applies the mutation rule. The
// checks run in order: unknown actor, missing post, ownership.
func (s *PostService) authorize(ctx context.Context, actorID, slug, verb string) (*models.User, *models.Post, error) {
	actor, err := s.users.GetUserByID(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}
	if actor == nil {
		logger.Log.Warn("Post mutation by unknown user", zap.String("user_id", actorID))
		return nil, nil, forbiddenError("user not found")
	}

	post, err := s.loadPost(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	if !CanMutatePost(actor, post) {
		logger.Log.Warn("Post mutation rejected",
			zap.String("user_id", actor.ID),
			zap.String("post_id", post.ID),
			zap.String("verb", verb),
		)
		return nil, nil, forbiddenError("you are not authorized to " + verb + " this post")
	}
	return actor, post, nil
}

func (s *PostService) loadPost(ctx context.Context, slug string) (*models.Post, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		logger.Log.Error("Failed to load post", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func (s *PostService) mapWriteError(err error, post *models.Post) error {
	switch {
	case errors.Is(err, repository.ErrVersionMismatch):
		logger.Log.Warn("Concurrent post update detected",
			zap.String("post_id", post.ID),
			zap.Int64("version", post.Version),
		)
		return ErrConcurrentUpdate
	case errors.Is(err, repository.ErrSlugTaken):
		return ErrSlugTaken
	case errors.Is(err, repository.ErrPostNotFound):
		return ErrPostNotFound
	}
	logger.Log.Error("Failed to write post", zap.String("post_id", post.ID), zap.Error(err))
	return err
}

// publish runs after a successful write; a broker outage must not turn
// a persisted change into an error.
func (s *PostService) publish(ctx context.Context, typ broker.EventType, post *models.Post, actorID string) {
	event := broker.PostEvent{
		Type:      typ,
		PostID:    post.ID,
		Slug:      post.Slug,
		ActorID:   actorID,
		Likes:     len(post.Likes),
		Dislikes:  len(post.Dislikes),
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		logger.Log.Warn("Failed to publish post event",
			zap.String("type", string(typ)),
			zap.String("post_id", post.ID),
			zap.Error(err),
		)
	}
}

func cleanTitle(raw string) (title, slug string, err error) {
	title = utils.SanitizeText(raw)
	if title == "" {
		return "", "", validationError("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", "", validationError("title cannot be more than %d characters", MaxTitleLength)
	}
	slug = utils.DeriveSlug(title)
	if slug == "" {
		return "", "", validationError("title must contain at least one letter or digit")
	}
	return title, slug, nil
}

func cleanContent(raw string) (string, error) {
	content := strings.TrimSpace(utils.SanitizeHTML(raw))
	if content == "" {
		return "", validationError("content is empty after sanitization")
	}
	return content, nil
}

func cleanExcerpt(raw string) (string, error) {
	excerpt := utils.SanitizeText(raw)
	if utf8.RuneCountInString(excerpt) > MaxExcerptLength {
		return "", validationError("excerpt cannot be more than %d characters", MaxExcerptLength)
	}
	return excerpt, nil
}

func cleanTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = utils.SanitizeText(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 1:
		limit = 1
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return page, limit
}

func toPostView(p *models.Post, author *models.User) *models.PostView {
	likes := append([]string{}, p.Likes...)
	dislikes := append([]string{}, p.Dislikes...)
	return &models.PostView{
		ID:           p.ID,
		Slug:         p.Slug,
		Title:        p.Title,
		Content:      p.Content,
		Excerpt:      p.Excerpt,
		CoverImage:   p.CoverImage,
		Author:       author.Summary(),
		Published:    p.Published,
		Likes:        likes,
		Dislikes:     dislikes,
		LikeCount:    len(likes),
		DislikeCount: len(dislikes),
		Tags:         append([]string{}, p.Tags...),
		ReadingTime:  utils.ReadingTime(p.Content),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
