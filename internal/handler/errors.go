package handler

import (
	"errors"
	"net/http"

	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps workflow errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotInvited):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrImmutableResponse),
		errors.Is(err, service.ErrNotEligible),
		errors.Is(err, service.ErrAlreadyClosed),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrDuplicateAccount):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return false
	}
	return true
}
