package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Author and reaction identity come from the token; any userId or
// authorId field a client sends is ignored.
type CreatePostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt"`
	CoverImage string   `json:"coverImage"`
	Tags       []string `json:"tags"`
	Published  bool     `json:"published"` // omitted means draft
}

type UpdatePostRequest struct {
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Excerpt    *string  `json:"excerpt"`
	CoverImage *string  `json:"coverImage"`
	Tags       []string `json:"tags"`
	Published  *bool    `json:"published"`
}

type ReactRequest struct {
	Action string `json:"action"`
}

// List serves one page of posts.
// GET /api/posts?page=1&limit=10&published=true
func (h *PostHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		respondBadRequest(c, "page must be a number")
		return
	}
	limit, err := queryInt(c, "limit", service.DefaultPageSize)
	if err != nil {
		respondBadRequest(c, "limit must be a number")
		return
	}
	publishedOnly := true
	if raw := c.Query("published"); raw != "" {
		if publishedOnly, err = strconv.ParseBool(raw); err != nil {
			respondBadRequest(c, "published must be true or false")
			return
		}
	}

	posts, pagination, err := h.postService.List(c.Request.Context(), service.ListPostsQuery{
		Page:          page,
		Limit:         limit,
		PublishedOnly: publishedOnly,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"posts":      posts,
		"pagination": pagination,
	})
}

// Get serves a single post by slug.
// GET /api/posts/:slug
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.postService.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"post":    post,
	})
}

// Create stores a new post (admins only).
// POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Create post request parsing failed", zap.Error(err))
		respondBadRequest(c, "Invalid request body")
		return
	}

	post, err := h.postService.Create(c.Request.Context(), c.GetString("user_id"), service.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		Tags:       req.Tags,
		Published:  req.Published,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"post":    post,
	})
}

// Update applies a partial patch to a post.
// PUT /api/posts/:slug
func (h *PostHandler) Update(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Update post request parsing failed", zap.Error(err))
		respondBadRequest(c, "Invalid request body")
		return
	}

	post, err := h.postService.Update(c.Request.Context(), c.GetString("user_id"), c.Param("slug"), service.UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		CoverImage: req.CoverImage,
		Tags:       req.Tags,
		Published:  req.Published,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"post":    post,
	})
}

// Delete removes a post and its comments.
// DELETE /api/posts/:slug
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.postService.Delete(c.Request.Context(), c.GetString("user_id"), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Post deleted successfully",
	})
}

// React toggles the caller's like or dislike.
// POST /api/posts/:slug/like
func (h *PostHandler) React(c *gin.Context) {
	var req ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	result, err := h.postService.React(c.Request.Context(), c.GetString("user_id"), c.Param("slug"), models.ReactionAction(req.Action))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"post":     result.Post,
		"reaction": result.Reaction,
	})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
