package app

import (
	"context"

	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/fx"
)

// InitLogger creates a new logger instance and flushes it on stop
func (a *application) InitLogger(lc fx.Lifecycle) *logger.Logger {
	l := logger.NewLogger(config.GetEnvironment(), a.config.Log.Level)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = l.Sync()
			return nil
		},
	})
	return l
}
