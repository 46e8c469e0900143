package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
)

// statusFor maps an error code to an HTTP status.
func statusFor(code string) int {
	switch code {
	case wikierrors.ErrCodeInvalidReference, wikierrors.ErrCodeInvalidInput, wikierrors.ErrCodeQueryEmpty:
		return http.StatusBadRequest
	case wikierrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case wikierrors.ErrCodeInvalidPath, wikierrors.ErrCodeFilePermission:
		return http.StatusForbidden
	case wikierrors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case wikierrors.ErrCodeIndexFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON error body with a matching status.
func writeError(c *gin.Context, err error) {
	body := wikierrors.ToJSON(err)
	status := statusFor(body.Code)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("path", c.Request.URL.Path),
			wikierrors.LogAttr(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
