package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/perlasbingo/settlement/internal/http/handlers"
	"github.com/perlasbingo/settlement/internal/http/middleware"
	"github.com/perlasbingo/settlement/internal/infrastructure/auth"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Options holds the listener settings
type Options struct {
	Address        string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// Handlers groups every route handler the server mounts
type Handlers struct {
	Games   *handlers.GameHandler
	Wallet  *handlers.WalletHandler
	Funding *handlers.FundingHandler
	WS      *handlers.WSHandler
}

// Server represents the HTTP server
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	jwtService   auth.JWTService
	handlers     Handlers
	errorHandler *middleware.ErrorHandler
	logger       *logger.Logger
	opts         Options
}

// NewServer creates a new HTTP server
func NewServer(
	jwtService auth.JWTService,
	h Handlers,
	errorHandler *middleware.ErrorHandler,
	log *logger.Logger,
	opts Options,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(errorHandler.RequestIDMiddleware())
	router.Use(errorHandler.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(corsMiddleware(opts.AllowedOrigins))
	router.Use(errorHandler.ErrorMiddleware())

	server := &Server{
		router:       router,
		jwtService:   jwtService,
		handlers:     h,
		errorHandler: errorHandler,
		logger:       log,
		opts:         opts,
	}

	server.setupRoutes()
	server.httpServer = &http.Server{
		Addr:              opts.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	return cors.New(cfg)
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireAuth := middleware.JWTMiddleware(s.jwtService, s.errorHandler)

	// The websocket stays outside the request timeout.
	s.router.GET("/api/v1/ws", requireAuth, s.handlers.WS.Connect)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.errorHandler.TimeoutMiddleware(s.opts.RequestTimeout))
	protected := v1.Group("/")
	protected.Use(requireAuth)
	{
		games := protected.Group("/games")
		{
			games.GET("", s.handlers.Games.ListGames)
			games.GET("/:id", s.handlers.Games.GetGame)
			games.POST("/:id/cards", s.handlers.Games.PurchaseCards)
			games.GET("/:id/cards", s.handlers.Games.MyCards)
			games.GET("/:id/progress", s.handlers.Games.Progress)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("", s.handlers.Wallet.GetWallet)
			wallet.POST("", s.handlers.Wallet.OpenWallet)
			wallet.GET("/transactions", s.handlers.Wallet.History)
			wallet.POST("/transfer", s.handlers.Wallet.Transfer)
		}

		deposits := protected.Group("/deposits")
		{
			deposits.POST("", s.handlers.Funding.CreateDeposit)
			deposits.GET("", s.handlers.Funding.ListDeposits)
			deposits.GET("/:id", s.handlers.Funding.GetDeposit)
			deposits.POST("/:id/cancel", s.handlers.Funding.CancelDeposit)
		}

		withdrawals := protected.Group("/withdrawals")
		{
			withdrawals.POST("", s.handlers.Funding.CreateWithdrawal)
			withdrawals.GET("", s.handlers.Funding.ListWithdrawals)
			withdrawals.GET("/:id", s.handlers.Funding.GetWithdrawal)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin(s.errorHandler))
		{
			admin.POST("/games", s.handlers.Games.CreateGame)
			admin.POST("/games/:id/open", s.handlers.Games.OpenGame)
			admin.POST("/games/:id/start", s.handlers.Games.StartGame)
			admin.POST("/games/:id/draw", s.handlers.Games.DrawBall)
			admin.POST("/games/:id/end", s.handlers.Games.EndGame)
			admin.POST("/games/:id/prizes", s.handlers.Games.AwardPrize)

			admin.POST("/wallets/:userId/freeze", s.handlers.Wallet.Freeze)
			admin.POST("/wallets/:userId/unfreeze", s.handlers.Wallet.Unfreeze)

			admin.GET("/deposits/pending", s.handlers.Funding.PendingDeposits)
			admin.POST("/deposits/:id/approve", s.handlers.Funding.ApproveDeposit)
			admin.POST("/deposits/:id/reject", s.handlers.Funding.RejectDeposit)

			admin.GET("/withdrawals/pending", s.handlers.Funding.PendingWithdrawals)
			admin.POST("/withdrawals/:id/approve", s.handlers.Funding.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", s.handlers.Funding.RejectWithdrawal)
			admin.POST("/withdrawals/:id/complete", s.handlers.Funding.CompleteWithdrawal)
		}
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("address", s.opts.Address))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
