package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Baaaki/newsletter-app/internal/models"
)

type memoryPost struct {
	post *models.Post
	seq  uint64
}

// MemoryPostRepository keeps posts in process memory. It backs local
// development (POST_STORE=memory) and the service tests.
type MemoryPostRepository struct {
	mu     sync.RWMutex
	byID   map[string]*memoryPost
	bySlug map[string]string
	seq    uint64
}

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		byID:   make(map[string]*memoryPost),
		bySlug: make(map[string]string),
	}
}

func (r *MemoryPostRepository) Create(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.bySlug[post.Slug]; taken {
		return ErrSlugTaken
	}

	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	post.Version = 1
	post.Likes = emptyIfNil(post.Likes)
	post.Dislikes = emptyIfNil(post.Dislikes)
	post.Tags = emptyIfNil(post.Tags)

	r.seq++
	r.byID[post.ID] = &memoryPost{post: post.Clone(), seq: r.seq}
	r.bySlug[post.Slug] = post.ID
	return nil
}

func (r *MemoryPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrPostNotFound
	}
	return r.byID[id].post.Clone(), nil
}

func (r *MemoryPostRepository) Update(ctx context.Context, post *models.Post, expectedVersion int64) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.lockedCheckVersion(post.ID, expectedVersion)
	if err != nil {
		return nil, err
	}
	if owner, taken := r.bySlug[post.Slug]; taken && owner != post.ID {
		return nil, ErrSlugTaken
	}

	next := post.Clone()
	next.AuthorID = stored.post.AuthorID
	next.CreatedAt = stored.post.CreatedAt
	next.Likes = stored.post.Likes
	next.Dislikes = stored.post.Dislikes
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()

	if next.Slug != stored.post.Slug {
		delete(r.bySlug, stored.post.Slug)
		r.bySlug[next.Slug] = next.ID
	}
	stored.post = next
	return next.Clone(), nil
}

func (r *MemoryPostRepository) UpdateReactions(ctx context.Context, id string, expectedVersion int64, likes, dislikes []string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.lockedCheckVersion(id, expectedVersion)
	if err != nil {
		return nil, err
	}

	next := stored.post.Clone()
	next.Likes = append([]string{}, likes...)
	next.Dislikes = append([]string{}, dislikes...)
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	stored.post = next
	return next.Clone(), nil
}

func (r *MemoryPostRepository) lockedCheckVersion(id string, expectedVersion int64) (*memoryPost, error) {
	stored, ok := r.byID[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	if stored.post.Version != expectedVersion {
		return nil, ErrVersionMismatch
	}
	return stored, nil
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return ErrPostNotFound
	}
	delete(r.bySlug, stored.post.Slug)
	delete(r.byID, id)
	return nil
}

func (r *MemoryPostRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.lockedMatch(filter)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})

	if offset >= len(matched) {
		return []*models.Post{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*models.Post, 0, end-offset)
	for _, m := range matched[offset:end] {
		out = append(out, m.post.Clone())
	}
	return out, nil
}

func (r *MemoryPostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.lockedMatch(filter))), nil
}

func (r *MemoryPostRepository) lockedMatch(filter PostFilter) []*memoryPost {
	matched := make([]*memoryPost, 0, len(r.byID))
	for _, m := range r.byID {
		if filter.PublishedOnly && !m.post.Published {
			continue
		}
		matched = append(matched, m)
	}
	return matched
}

// MemoryCommentRepository is the in-process CommentRepository.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	byPost   map[string][]*models.Comment
	sequence map[string]uint64
	seq      uint64
}

func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{
		byPost:   make(map[string][]*models.Comment),
		sequence: make(map[string]uint64),
	}
}

func (r *MemoryCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	r.seq++
	cp := *comment
	r.byPost[comment.PostID] = append(r.byPost[comment.PostID], &cp)
	r.sequence[comment.ID] = r.seq
	return nil
}

func (r *MemoryCommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byPost[postID]
	out := make([]*models.Comment, 0, len(stored))
	for _, c := range stored {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.sequence[out[i].ID] > r.sequence[out[j].ID]
	})
	return out, nil
}

func (r *MemoryCommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.byPost[postID]
	for _, c := range removed {
		delete(r.sequence, c.ID)
	}
	delete(r.byPost, postID)
	return int64(len(removed)), nil
}
