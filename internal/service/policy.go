package service

import "github.com/Baaaki/newsletter-app/internal/models"

// CanCreatePost reports whether actor may author new posts.
func CanCreatePost(actor *models.User) bool {
	return actor.IsAdmin()
}

// CanMutatePost reports whether actor may edit or delete post: admins may
// touch any post, everyone else only their own.
func CanMutatePost(actor *models.User, post *models.Post) bool {
	if actor == nil || post == nil {
		return false
	}
	return actor.IsAdmin() || actor.ID == post.AuthorID
}
