package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Baaaki/newsletter-app/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	postsCollection    = "posts"
	commentsCollection = "comments"
)

// MongoPostRepository stores posts as documents in MongoDB.
type MongoPostRepository struct {
	col *mongo.Collection
}

func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{col: db.Collection(postsCollection)}
}

// EnsureIndexes creates the unique slug index the repository relies on
// for collision detection, plus the listing and author indexes.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		},
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("published_created_at"),
		},
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}},
			Options: options.Index().SetName("author_id"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo post indexes: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	post.Version = 1
	post.Likes = emptyIfNil(post.Likes)
	post.Dislikes = emptyIfNil(post.Dislikes)
	post.Tags = emptyIfNil(post.Tags)

	if _, err := r.col.InsertOne(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("mongo insert post: %w", err)
	}
	return nil
}

func (r *MongoPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("mongo find post: %w", err)
	}
	return normalizePost(&post), nil
}

func (r *MongoPostRepository) Update(ctx context.Context, post *models.Post, expectedVersion int64) (*models.Post, error) {
	update := bson.M{
		"$set": bson.M{
			"slug":        post.Slug,
			"title":       post.Title,
			"content":     post.Content,
			"excerpt":     post.Excerpt,
			"cover_image": post.CoverImage,
			"tags":        emptyIfNil(post.Tags),
			"published":   post.Published,
			"updated_at":  time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	return r.compareAndSwap(ctx, post.ID, expectedVersion, update)
}

func (r *MongoPostRepository) UpdateReactions(ctx context.Context, id string, expectedVersion int64, likes, dislikes []string) (*models.Post, error) {
	update := bson.M{
		"$set": bson.M{
			"likes":      emptyIfNil(likes),
			"dislikes":   emptyIfNil(dislikes),
			"updated_at": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	return r.compareAndSwap(ctx, id, expectedVersion, update)
}

func (r *MongoPostRepository) compareAndSwap(ctx context.Context, id string, expectedVersion int64, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Post
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "version": expectedVersion}, update, opts).Decode(&updated)
	if err == nil {
		return normalizePost(&updated), nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrSlugTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongo update post: %w", err)
	}

	// Nothing matched: tell a vanished post apart from a lost race.
	n, countErr := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, fmt.Errorf("mongo count post: %w", countErr)
	}
	if n == 0 {
		return nil, ErrPostNotFound
	}
	return nil, ErrVersionMismatch
}

func (r *MongoPostRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *MongoPostRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]*models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, postQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []*models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("mongo decode posts: %w", err)
	}
	for _, p := range posts {
		normalizePost(p)
	}
	return posts, nil
}

func (r *MongoPostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	n, err := r.col.CountDocuments(ctx, postQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("mongo count posts: %w", err)
	}
	return n, nil
}

func postQuery(filter PostFilter) bson.M {
	q := bson.M{}
	if filter.PublishedOnly {
		q["published"] = true
	}
	return q
}

func normalizePost(p *models.Post) *models.Post {
	p.Likes = emptyIfNil(p.Likes)
	p.Dislikes = emptyIfNil(p.Dislikes)
	p.Tags = emptyIfNil(p.Tags)
	return p
}

// MongoCommentRepository stores comments in their own collection,
// referencing posts by id.
type MongoCommentRepository struct {
	col *mongo.Collection
}

func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{col: db.Collection(commentsCollection)}
}

func (r *MongoCommentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("mongo comment indexes: %w", err)
	}
	return nil
}

func (r *MongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, comment); err != nil {
		return fmt.Errorf("mongo insert comment: %w", err)
	}
	return nil
}

func (r *MongoCommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list comments: %w", err)
	}
	defer cur.Close(ctx)

	comments := []*models.Comment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("mongo decode comments: %w", err)
	}
	return comments, nil
}

func (r *MongoCommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, fmt.Errorf("mongo delete comments: %w", err)
	}
	return res.DeletedCount, nil
}
