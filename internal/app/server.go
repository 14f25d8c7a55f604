package app

import (
	"context"

	"github.com/perlasbingo/settlement/internal/http"
	"github.com/perlasbingo/settlement/internal/http/handlers"
	"github.com/perlasbingo/settlement/internal/http/middleware"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// InitHTTPServer initializes the HTTP server with all dependencies
func (a *application) InitHTTPServer(
	jwtService auth.JWTService,
	gameHandler *handlers.GameHandler,
	walletHandler *handlers.WalletHandler,
	fundingHandler *handlers.FundingHandler,
	wsHandler *handlers.WSHandler,
	errorHandler *middleware.ErrorHandler,
	log *logger.Logger,
) *http.Server {
	return http.NewServer(
		jwtService,
		http.Handlers{
			Games:   gameHandler,
			Wallet:  walletHandler,
			Funding: fundingHandler,
			WS:      wsHandler,
		},
		errorHandler,
		log,
		http.Options{
			Address:        a.config.GetServerAddress(),
			RequestTimeout: a.config.Server.RequestTimeout,
			AllowedOrigins: a.config.Server.AllowedOrigins,
		},
	)
}

// RunHTTPServer starts listening once the graph is built and drains on stop
func (a *application) RunHTTPServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, server *http.Server, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
