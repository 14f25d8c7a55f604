package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
)

// JWTMiddleware creates JWT authentication middleware. Browsers cannot set
// headers on websocket upgrades, so a token query parameter is accepted too.
func JWTMiddleware(jwtService auth.JWTService, errs *ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				errs.Respond(c, domain.NewAppError(domain.KindUnauthorized, domain.ErrCodeTokenMissing, "Authorization header required", nil))
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				errs.Respond(c, domain.NewAppError(domain.KindUnauthorized, domain.ErrCodeTokenInvalid, "Invalid authorization header format", nil))
				return
			}
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			errs.Respond(c, domain.NewAppError(domain.KindUnauthorized, domain.ErrCodeTokenInvalid, "Invalid token", err))
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role
func RequireAdmin(errs *ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != auth.RoleAdmin {
			errs.Respond(c, domain.NewForbiddenError("Admin role required"))
			return
		}
		c.Next()
	}
}
