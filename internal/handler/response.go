package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/newsletter-app/internal/service"
	"github.com/Baaaki/newsletter-app/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a service error onto its HTTP status. Slug and email
// collisions are reported as bad requests; only lost optimistic writes
// get 409.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrEmailAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

var classPrefixes = []string{
	service.ErrValidation.Error() + ": ",
	service.ErrNotFound.Error() + ": ",
	service.ErrForbidden.Error() + ": ",
	service.ErrConflict.Error() + ": ",
}

func publicMessage(err error) string {
	msg := err.Error()
	for _, p := range classPrefixes {
		if strings.HasPrefix(msg, p) {
			return strings.TrimPrefix(msg, p)
		}
	}
	return msg
}

// respondError writes the failure envelope. Internal errors are logged
// in full but reported generically.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"success": false, "error": publicMessage(err)})
}

func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
