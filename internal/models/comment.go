package models

import "time"

type Comment struct {
	ID        string    `json:"id"        bson:"_id"`
	PostID    string    `json:"postId"    bson:"post_id"`
	AuthorID  string    `json:"authorId"  bson:"author_id"`
	Content   string    `json:"content"   bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

type CommentView struct {
	ID        string         `json:"id"`
	PostID    string         `json:"postId"`
	Content   string         `json:"content"`
	Author    *AuthorSummary `json:"author"`
	CreatedAt time.Time      `json:"createdAt"`
}
