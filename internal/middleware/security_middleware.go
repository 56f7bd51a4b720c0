package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Post bodies and cover images may point at any https host.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data: https:",
	"font-src 'self'",
	"connect-src 'self'",
	"frame-ancestors 'none'",
}, "; ")

var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Content-Security-Policy", contentSecurityPolicy},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()"},
}

// Responses under these prefixes carry session cookies or account data.
var noStorePrefixes = []string{"/api/auth/", "/api/admin/"}

// SecurityHeadersMiddleware sets the fixed security headers and keeps
// auth and admin responses out of shared caches.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}

		path := c.Request.URL.Path
		for _, prefix := range noStorePrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Header("Cache-Control", "no-store")
				break
			}
		}

		c.Next()
	}
}

// HSTSMiddleware enforces HTTPS in production only, since local
// development runs over plain http.
func HSTSMiddleware(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProduction {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		c.Next()
	}
}
