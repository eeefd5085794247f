package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fudbi/fudbi/internal/common"
	"github.com/fudbi/fudbi/internal/server/identity"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgInternal         = "Internal server error"
)

var badRequestErrors = []error{
	identity.ErrCodeMismatch,
	identity.ErrExpiredCode,
	identity.ErrUsernameExists,
	identity.ErrInvalidPassword,
	common.ErrorValidation,
	common.ErrPostNotAvailable,
	common.ErrPostExpired,
	common.ErrInvalidTransition,
	common.ErrPickupMismatch,
	common.ErrInvalidRating,
}

// statusFor maps a service error onto its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrNotAuthorized),
		errors.Is(err, identity.ErrUserNotConfirmed),
		errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error body. Downstream failures are logged and
// replaced by a generic message.
func (e *Env) fail(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		e.Logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": msgInternal})
	case http.StatusUnauthorized:
		msg := err.Error()
		if errors.Is(err, common.ErrorUnauthorized) {
			msg = msgNotAuthenticated
		}
		c.JSON(status, gin.H{"error": msg})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}
