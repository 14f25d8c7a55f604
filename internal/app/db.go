package app

import (
	"context"
	"fmt"

	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/database"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/perlasbingo/settlement/internal/infrastructure/memstore"
	"github.com/perlasbingo/settlement/internal/infrastructure/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// InitStore opens the configured persistence backend
func (a *application) InitStore(lc fx.Lifecycle, log *logger.Logger) (domain.Store, error) {
	switch a.config.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn("Using in-memory store; state is lost on restart")
		return memstore.New(), nil
	case config.StoreDriverPostgres, "":
	default:
		return nil, fmt.Errorf("unknown store driver %q", a.config.Store.Driver)
	}

	db, err := database.NewDatabase(&database.Config{
		Host:            a.config.Database.Host,
		Port:            a.config.Database.Port,
		User:            a.config.Database.User,
		Password:        a.config.Database.Password,
		Name:            a.config.Database.Name,
		SSLMode:         a.config.Database.SSLMode,
		MaxIdleConns:    a.config.Database.MaxIdleConns,
		MaxOpenConns:    a.config.Database.MaxOpenConns,
		ConnMaxLifetime: a.config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	log.Info("Connected to database",
		zap.String("host", a.config.Database.Host),
		zap.String("name", a.config.Database.Name))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return repository.NewStore(db.GetDB()), nil
}
