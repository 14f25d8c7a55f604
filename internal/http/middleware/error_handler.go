package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Context keys set by the middleware chain
const (
	ContextRequestID = "request_id"
	ContextUserID    = "user_id"
	ContextRole      = "role"
)

// StatusForKind maps an error kind to its HTTP status
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation, domain.KindInvalidCardStructure:
		return http.StatusBadRequest
	case domain.KindInvalidState, domain.KindAlreadyProcessed, domain.KindBallsExhausted:
		return http.StatusConflict
	case domain.KindGameFull, domain.KindCardLimitExceeded:
		return http.StatusConflict
	case domain.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case domain.KindWalletInactive, domain.KindWalletFrozen, domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindExpired:
		return http.StatusGone
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger *logger.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *logger.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Respond writes err as an ErrorResponse with the status of its kind
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	appErr, ok := domain.IsAppError(err)
	if !ok {
		appErr = domain.NewInternalError("Internal server error", err)
	}
	if appErr.Code == domain.ErrCodeTimeout {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, h.decorate(c, appErr))
		return
	}

	status := StatusForKind(appErr.Kind)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, h.decorate(c, appErr))
}

func (h *ErrorHandler) decorate(c *gin.Context, appErr *domain.AppError) domain.ErrorResponse {
	out := *appErr
	out.RequestID = c.GetString(ContextRequestID)
	out.Path = c.Request.URL.Path
	out.Method = c.Request.Method
	return domain.NewErrorResponse(&out)
}

// ErrorMiddleware renders the last error a handler attached with c.Error
func (h *ErrorHandler) ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		h.Respond(c, c.Errors.Last().Err)
	}
}

// RecoveryMiddleware turns panics into a 500 ErrorResponse
func (h *ErrorHandler) RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		h.logger.Error("Panic recovered",
			zap.String("requestID", c.GetString(ContextRequestID)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Any("panic", recovered),
			zap.String("stack", string(debug.Stack())))

		h.Respond(c, domain.NewInternalError("Internal server error", fmt.Errorf("panic: %v", recovered)))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func (h *ErrorHandler) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TimeoutMiddleware bounds the request context. Store calls honor the
// deadline, so a stuck request fails with a timeout instead of hanging.
func (h *ErrorHandler) TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			h.logger.Warn("Request timed out",
				zap.String("requestID", c.GetString(ContextRequestID)),
				zap.String("path", c.Request.URL.Path))
			h.Respond(c, domain.NewAppError(domain.KindInternal, domain.ErrCodeTimeout, "Request timeout", ctx.Err()))
		}
	}
}
