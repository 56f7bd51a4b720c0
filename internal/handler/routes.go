package handler

import (
	"net/http"

	"github.com/Baaaki/newsletter-app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Auth    *AuthHandler
	Admin   *AdminHandler
	Post    *PostHandler
	Comment *CommentHandler
	Feed    *EventFeedHandler // optional
}

// Limits are optional per-scope rate limit middlewares; nil disables one.
type Limits struct {
	Auth  gin.HandlerFunc
	Write gin.HandlerFunc
}

func RegisterRoutes(router *gin.Engine, h Handlers, jwtSecret string, limits Limits) {
	requireAuth := middleware.AuthMiddleware(jwtSecret)
	authLimit := orPassThrough(limits.Auth)
	writeLimit := orPassThrough(limits.Write)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", authLimit, h.Auth.Register)
		auth.POST("/login", authLimit, h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
	}
	api.GET("/users/:id", h.Auth.Profile)

	posts := api.Group("/posts")
	{
		posts.GET("", h.Post.List)
		posts.GET("/:slug", h.Post.Get)
		posts.GET("/:slug/comments", h.Comment.List)

		// Protected routes (require JWT)
		posts.POST("", requireAuth, writeLimit, h.Post.Create)
		posts.PUT("/:slug", requireAuth, writeLimit, h.Post.Update)
		posts.DELETE("/:slug", requireAuth, writeLimit, h.Post.Delete)
		posts.POST("/:slug/like", requireAuth, writeLimit, h.Post.React)
		posts.POST("/:slug/comments", requireAuth, writeLimit, h.Comment.Add)
	}

	if h.Feed != nil {
		api.GET("/events", requireAuth, h.Feed.HandleWebSocket)
	}

	admin := api.Group("/admin")
	admin.Use(requireAuth, middleware.AdminMiddleware())
	{
		admin.GET("/users", h.Admin.GetAllUsers)
		admin.POST("/ban", h.Admin.BanUser)
	}
}

func orPassThrough(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw != nil {
		return mw
	}
	return func(c *gin.Context) { c.Next() }
}
