package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/v4ult/internal/auth"
	"github.com/sujalbistaa/v4ult/internal/ratelimit"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-V4ult-Admin-Token"

const actorKey = "actor"

// AdminAuthMiddleware answers 403 for a missing or wrong token.
func AdminAuthMiddleware(a auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, err := a.Authenticate(c.GetHeader(AdminTokenHeader))
		switch {
		case errors.Is(err, auth.ErrMissingCredentials):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Admin token required"})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: Invalid admin token"})
			return
		}
		c.Set(actorKey, who)
		c.Next()
	}
}

func actor(c *gin.Context) string {
	if who := c.GetString(actorKey); who != "" {
		return who
	}
	return "admin"
}

// RateLimitMiddleware refuses a client IP inside its cooldown. A failing
// limiter lets the request through.
func RateLimitMiddleware(l ratelimit.Limiter, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.WarnContext(c.Request.Context(), "rate limiter unavailable",
				slog.String("error", err.Error()),
				slog.String("module", "http"),
			)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds basic security headers for a JSON API.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}
