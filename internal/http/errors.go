package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/v4ult/internal/confession"
)

// writeError maps domain errors to responses. Only validation and
// authentication reasons reach the client verbatim.
func (e *Env) writeError(c *gin.Context, err error) {
	var (
		ve confession.ValidationError
		ae confession.AuthenticationError
		nf confession.NotFoundError
		ce confession.ConflictError
		ue confession.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error(), "code": ve.Code}
		if len(ve.Fields) > 0 {
			body["fields"] = ve.Fields
		}
		if ve.Code == confession.CodeToxicContent {
			body["toxicityScore"] = ve.Score
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &ae):
		c.JSON(http.StatusUnauthorized, gin.H{"error": ae.Reason, "code": ae.Code})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": "Confession not found"})
	case errors.As(err, &ce):
		status := http.StatusConflict
		if ce.Code == confession.CodeInvalidTransition {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": ce.Reason, "code": ce.Code})
	case errors.As(err, &ue) && ue.Provider != "storage":
		e.logger().ErrorContext(c.Request.Context(), "upstream provider failed",
			slog.String("provider", ue.Provider),
			slog.String("error", err.Error()),
			slog.String("module", "http"),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service unavailable, please try again later"})
	default:
		e.logger().ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
			slog.String("module", "http"),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
