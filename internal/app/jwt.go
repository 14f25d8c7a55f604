package app

import (
	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
)

func (a *application) InitJWTService() auth.JWTService {
	cfg := &config.JWTConfig{
		Secret: a.config.JWT.Secret,
		Expiry: a.config.JWT.Expiry,
		Issuer: a.config.JWT.Issuer,
	}
	return auth.NewJWTService(cfg)
}
