package auth

import (
	"testing"
	"time"

	"github.com/perlasbingo/settlement/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(secret string, expiry time.Duration) JWTService {
	return NewJWTService(&config.JWTConfig{Secret: secret, Expiry: expiry, Issuer: "perlas-bingo"})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newService("s3cret", time.Hour)

	token, err := svc.GenerateToken(42, RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "42", claims.Subject)
}

func TestJWTService_Rejects(t *testing.T) {
	good := newService("s3cret", time.Hour)
	token, err := good.GenerateToken(7, RolePlayer)
	require.NoError(t, err)

	expired, err := newService("s3cret", -time.Minute).GenerateToken(7, RolePlayer)
	require.NoError(t, err)

	tests := []struct {
		name  string
		svc   JWTService
		token string
	}{
		{"wrong secret", newService("other", time.Hour), token},
		{"expired", good, expired},
		{"garbage", good, "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}

	_, err = good.GenerateToken(1, "root")
	assert.Error(t, err)
}
