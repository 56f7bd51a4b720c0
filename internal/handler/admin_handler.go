package handler

import (
	"net/http"

	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	authService *service.AuthService
}

func NewAdminHandler(authService *service.AuthService) *AdminHandler {
	return &AdminHandler{
		authService: authService,
	}
}

type BanUserRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// GetAllUsers returns all users (including banned ones)
// GET /api/admin/users
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	logger.Log.Info("Admin fetching all users",
		zap.String("admin_id", c.GetString("user_id")),
	)

	users, err := h.authService.GetAllUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   users,
	})
}

// BanUser soft deletes a user; their posts and comments drop out of listings.
// POST /api/admin/ban
func (h *AdminHandler) BanUser(c *gin.Context) {
	var req BanUserRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.Warn("Ban user request parsing failed", zap.Error(err))
		respondBadRequest(c, "Please provide user_id and reason")
		return
	}

	adminID := c.GetString("user_id")
	logger.Log.Info("Admin banning user",
		zap.String("admin_id", adminID),
		zap.String("target_user_id", req.UserID),
		zap.String("reason", req.Reason),
	)

	if err := h.authService.BanUser(c.Request.Context(), req.UserID, adminID, req.Reason); err != nil {
		logger.Log.Warn("Failed to ban user",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User banned successfully",
	})
}
