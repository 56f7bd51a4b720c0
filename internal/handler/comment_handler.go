package handler

import (
	"net/http"

	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

// List returns a post's comments, newest first.
// GET /api/posts/:slug/comments
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.commentService.ListComments(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"comments": comments,
	})
}

// Add appends a comment from the authenticated user.
// POST /api/posts/:slug/comments
func (h *CommentHandler) Add(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), c.GetString("user_id"), c.Param("slug"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"comment": comment,
	})
}
