package app

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// Application provides application level setup
type Application interface {
	Setup()
	GetContext() context.Context
}

// application represents context and configure file
type application struct {
	ctx    context.Context
	config *config.Config
}

// NewApplication creates a new application
func NewApplication(ctx context.Context) Application {
	return &application{ctx: ctx}
}

// GetContext returns application context
func (a *application) GetContext() context.Context {
	return a.ctx
}

// Setup loads configuration and runs the fx application until it receives a signal
func (a *application) Setup() {
	fmt.Println("[x] Starting Perlas Bingo settlement service...")

	path := flag.String("e", "./config", "config file directory")
	flag.Parse()

	cfg, err := config.Load(*path, config.GetEnvironment())
	if err != nil {
		log.Panic(err.Error())
	}
	a.config = cfg
	fmt.Println("[x] Config loaded successfully")

	app := fx.New(a.Options())
	app.Run()
}

// Options returns the full dependency graph
func (a *application) Options() fx.Option {
	return fx.Options(
		fx.WithLogger(func(l *logger.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx").Zap()}
		}),
		fx.Provide(
			a.InitLogger,
			a.InitStore,
			a.InitLocker,
			a.InitJWTService,
			a.InitErrorHandler,
			a.InitLedgerUseCase,
			a.InitSettlementUseCase,
			a.InitGameUseCase,
			a.InitDepositUseCase,
			a.InitWithdrawalUseCase,
			a.InitHub,
			a.InitEventPublisher,
			a.InitOutboxProcessor,
			a.InitGameHandler,
			a.InitWalletHandler,
			a.InitFundingHandler,
			a.InitWSHandler,
			a.InitHTTPServer,
		),
		fx.Invoke(a.RunOutboxProcessor, a.RunHTTPServer),
	)
}
