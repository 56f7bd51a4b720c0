package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/newsletter-app/internal/models"
	"github.com/Baaaki/newsletter-app/internal/utils"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenCookie is the HttpOnly cookie set on login and register.
const TokenCookie = "token"

func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Bearer header wins over the cookie
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Not authorized, no token",
			})
			return
		}

		// 2. Validate token
		claims, err := utils.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, utils.ErrExpiredToken) {
				msg = "Token expired"
			}
			logger.Log.Debug("Token rejected",
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   msg,
			})
			return
		}

		// 3. Add claims to context (handlers can access)
		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Set("claims", claims)

		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			return "", false
		}
		return token, true
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get role from context (set by AuthMiddleware)
		role, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}

		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Admin access required",
			})
			return
		}

		c.Next()
	}
}
