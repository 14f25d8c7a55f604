package app

import (
	"context"
	"fmt"

	"github.com/perlasbingo/settlement/internal/config"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/lock"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// InitLocker builds the per-game draw lock. The local backend only
// serializes draws inside one process; run the redis backend with replicas.
func (a *application) InitLocker(lc fx.Lifecycle, log *logger.Logger) (domain.Locker, error) {
	timeout := a.config.Game.DrawLockTimeout
	switch a.config.Game.LockBackend {
	case config.LockBackendLocal, "":
		return lock.NewKeyedMutex(timeout, log), nil
	case config.LockBackendRedis:
	default:
		return nil, fmt.Errorf("unknown lock backend %q", a.config.Game.LockBackend)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping %s: %w", a.config.Redis.Addr, err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return lock.NewRedisLocker(client, lock.RedisConfig{
		TTL:     a.config.Redis.LockTTL,
		Timeout: timeout,
	}, log), nil
}
