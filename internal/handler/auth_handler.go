package handler

import (
	"net/http"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Registration request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		respondBadRequest(c, "Please provide name, email and password")
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	user, token, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		logger.Log.Warn("Registration failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	// 3. Set token in HTTP-only cookie
	h.setTokenCookie(c, token)

	// 4. Return success response (without token in body)
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    userResponse(user),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	// 1. Parse JSON request
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Login request parsing failed",
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		respondBadRequest(c, "Please provide email and password")
		return
	}

	logger.Log.Info("User login attempt",
		zap.String("email", req.Email),
		zap.String("ip", c.ClientIP()),
	)

	// 2. Call service
	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Warn("Login failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	// 3. Set token in HTTP-only cookie
	h.setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    userResponse(user),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", "", -1, "/", "", h.authService.IsProduction(), true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out",
	})
}

// Profile serves the public profile of any live user.
// GET /api/users/:id
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.authService.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    userResponse(user),
	})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode) // CSRF protection
	c.SetCookie(
		"token",
		token,
		int(h.authService.TokenTTL().Seconds()),
		"/",
		"",
		h.authService.IsProduction(), // HTTPS-only in production
		true,                         // JavaScript cannot access
	)
}

func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":     user.ID,
		"name":   user.Name,
		"email":  user.Email,
		"role":   user.Role,
		"avatar": user.Avatar,
		"bio":    user.Bio,
	}
}
