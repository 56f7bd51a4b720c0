package models

import "time"

// ReactionAction is the token a client sends to the reaction endpoint.
type ReactionAction string

const (
	ReactionLike    ReactionAction = "like"
	ReactionDislike ReactionAction = "dislike"
)

func (a ReactionAction) Valid() bool {
	return a == ReactionLike || a == ReactionDislike
}

// ReactionState is a single user's stance on a post.
type ReactionState string

const (
	ReactionNeutral  ReactionState = "neutral"
	ReactionLiked    ReactionState = "liked"
	ReactionDisliked ReactionState = "disliked"
)

// Post is stored as one document; Likes and Dislikes hold user ids and
// never share a member. Version is bumped on every write and guards
// compare-and-swap updates.
type Post struct {
	ID         string    `json:"id"          bson:"_id"`
	Slug       string    `json:"slug"        bson:"slug"`
	Title      string    `json:"title"       bson:"title"`
	Content    string    `json:"content"     bson:"content"`
	Excerpt    string    `json:"excerpt"     bson:"excerpt,omitempty"`
	CoverImage string    `json:"coverImage"  bson:"cover_image,omitempty"`
	AuthorID   string    `json:"authorId"    bson:"author_id"`
	Published  bool      `json:"published"   bson:"published"`
	Likes      []string  `json:"likes"       bson:"likes"`
	Dislikes   []string  `json:"dislikes"    bson:"dislikes"`
	Tags       []string  `json:"tags"        bson:"tags"`
	Version    int64     `json:"version"     bson:"version"`
	CreatedAt  time.Time `json:"createdAt"   bson:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"   bson:"updated_at"`
}

// ReactionOf reports the state derived from the user's set membership.
func (p *Post) ReactionOf(userID string) ReactionState {
	for _, id := range p.Likes {
		if id == userID {
			return ReactionLiked
		}
	}
	for _, id := range p.Dislikes {
		if id == userID {
			return ReactionDisliked
		}
	}
	return ReactionNeutral
}

// Clone returns a deep copy so callers can mutate slices freely.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	cp.Dislikes = append([]string{}, p.Dislikes...)
	cp.Tags = append([]string{}, p.Tags...)
	return &cp
}

// PostView is the API shape of a post: author expanded, reaction sets
// as plain id arrays plus counts.
type PostView struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Excerpt      string         `json:"excerpt,omitempty"`
	CoverImage   string         `json:"coverImage,omitempty"`
	Author       *AuthorSummary `json:"author"`
	Published    bool           `json:"published"`
	Likes        []string       `json:"likes"`
	Dislikes     []string       `json:"dislikes"`
	LikeCount    int            `json:"likeCount"`
	DislikeCount int            `json:"dislikeCount"`
	Tags         []string       `json:"tags"`
	ReadingTime  int            `json:"readingTime"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Pagination describes one page of a post listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}
