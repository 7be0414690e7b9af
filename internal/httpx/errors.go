// Package httpx holds the gin plumbing shared by every feature handler.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"akstore/internal/apperr"
)

// Error writes err as {"message": ...} with the status matching its kind.
// Unclassified and transaction errors are logged and answered with a generic message.
func Error(c *gin.Context, err error) {
	status := StatusOf(err)
	msg := apperr.MessageOf(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDKey),
			"error", err,
		)
		if apperr.KindOf(err) == apperr.Unknown {
			msg = "unexpected server error"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest answers 400 with msg.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": msg})
}

// BindJSON decodes the body into v and answers 400 on failure.
func BindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return false
	}
	return true
}
