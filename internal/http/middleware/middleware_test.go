package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Error struct {
		Kind      string `json:"kind"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	} `json:"error"`
	Success bool `json:"success"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind domain.ErrorKind
		want int
	}{
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindInvalidCardStructure, http.StatusBadRequest},
		{domain.KindInvalidState, http.StatusConflict},
		{domain.KindAlreadyProcessed, http.StatusConflict},
		{domain.KindBallsExhausted, http.StatusConflict},
		{domain.KindGameFull, http.StatusConflict},
		{domain.KindCardLimitExceeded, http.StatusConflict},
		{domain.KindInsufficientFunds, http.StatusPaymentRequired},
		{domain.KindWalletInactive, http.StatusForbidden},
		{domain.KindWalletFrozen, http.StatusForbidden},
		{domain.KindForbidden, http.StatusForbidden},
		{domain.KindExpired, http.StatusGone},
		{domain.KindUnauthorized, http.StatusUnauthorized},
		{domain.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusForKind(tt.kind))
		})
	}
}

func newRouter(h *ErrorHandler, handler gin.HandlerFunc, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(h.RequestIDMiddleware(), h.RecoveryMiddleware(), h.ErrorMiddleware())
	r.GET("/x", append(extra, handler)...)
	return r
}

func TestErrorMiddleware_RendersKind(t *testing.T) {
	h := NewErrorHandler(logger.NewNop())
	r := newRouter(h, func(c *gin.Context) {
		_ = c.Error(domain.Wrap(domain.ErrInsufficientFunds, "balance 2.00, required 10.00"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decode(t, w)
	assert.Equal(t, "INSUFFICIENT_FUNDS", body.Error.Kind)
	assert.Equal(t, domain.ErrCodeInsufficientBalance, body.Error.Code)
	assert.Equal(t, "req-1", body.Error.RequestID)
	assert.False(t, body.Success)
}

func TestErrorMiddleware_ForeignErrorIsInternal(t *testing.T) {
	h := NewErrorHandler(logger.NewNop())
	r := newRouter(h, func(c *gin.Context) {
		_ = c.Error(errors.New("disk on fire"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, domain.ErrCodeInternal, decode(t, w).Error.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewErrorHandler(logger.NewNop())
	r := newRouter(h, func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTimeoutMiddleware(t *testing.T) {
	h := NewErrorHandler(logger.NewNop())
	r := gin.New()
	r.Use(h.TimeoutMiddleware(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestJWTMiddleware(t *testing.T) {
	h := NewErrorHandler(logger.NewNop())
	jwtSvc := auth.NewJWTService(&config.JWTConfig{Secret: "k", Expiry: time.Hour, Issuer: "perlas-bingo"})
	player, err := jwtSvc.GenerateToken(5, auth.RolePlayer)
	require.NoError(t, err)
	admin, err := jwtSvc.GenerateToken(1, auth.RoleAdmin)
	require.NoError(t, err)

	ok := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(ContextUserID)})
	}
	r := gin.New()
	r.GET("/me", JWTMiddleware(jwtSvc, h), ok)
	r.GET("/admin", JWTMiddleware(jwtSvc, h), RequireAdmin(h), ok)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"not bearer", "/me", "Token " + player, http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"player", "/me", "Bearer " + player, http.StatusOK},
		{"query token", "/me?token=" + player, "", http.StatusOK},
		{"player on admin route", "/admin", "Bearer " + player, http.StatusForbidden},
		{"admin", "/admin", "Bearer " + admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
