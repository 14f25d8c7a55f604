package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/http/middleware"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
)

// authenticatedUserID returns the caller set by the JWT middleware
func authenticatedUserID(c *gin.Context) (int64, bool) {
	id := c.GetInt64(middleware.ContextUserID)
	if id <= 0 {
		_ = c.Error(domain.NewUnauthorizedError("User not authenticated"))
		return 0, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRole) == auth.RoleAdmin
}

// pathID parses a positive int64 path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(domain.NewValidationError(name, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// page reads limit/offset query parameters; the usecases clamp them
func page(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return limit, offset
}

// bind decodes a JSON body and reports malformed input as a validation error
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		appErr := domain.NewValidationError("body", "Invalid request body")
		appErr.Err = err
		_ = c.Error(appErr)
		return false
	}
	return true
}

// ownerOrAdmin rejects access to another user's request
func ownerOrAdmin(c *gin.Context, ownerID int64) bool {
	if isAdmin(c) {
		return true
	}
	if c.GetInt64(middleware.ContextUserID) != ownerID {
		_ = c.Error(domain.Wrap(domain.ErrRequestNotOwned, ""))
		return false
	}
	return true
}
