package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "bingo:lock:"

// releaseScript deletes the key only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig tunes the distributed lock
type RedisConfig struct {
	TTL           time.Duration
	Timeout       time.Duration
	RetryInterval time.Duration
}

// RedisLocker is a domain.Locker shared by every API replica
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisConfig
	tokens sync.Map // map[string]string
	logger *logger.Logger
}

// NewRedisLocker creates a RedisLocker on client
func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig, logger *logger.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	logger.Info("RedisLocker initialized", zap.Duration("ttl", cfg.TTL), zap.Duration("timeout", cfg.Timeout))
	return &RedisLocker{client: client, cfg: cfg, logger: logger.Named("RedisLocker")}
}

// Lock polls SET NX until it wins, ctx ends or the timeout elapses
func (l *RedisLocker) Lock(ctx context.Context, key string) error {
	token := uuid.NewString()
	deadline := time.NewTimer(l.cfg.Timeout)
	defer deadline.Stop()

	for {
		ok, err := l.client.SetNX(ctx, keyPrefix+key, token, l.cfg.TTL).Result()
		if err != nil {
			l.logger.Error("Redis lock failed", zap.String("key", key), zap.Error(err))
			return domain.NewInternalError("Failed to acquire lock", err)
		}
		if ok {
			l.tokens.Store(key, token)
			return nil
		}

		select {
		case <-ctx.Done():
			return domain.NewAppError(domain.KindInternal, domain.ErrCodeTimeout, fmt.Sprintf("lock %s not acquired", key), ctx.Err())
		case <-deadline.C:
			l.logger.Warn("Failed to acquire lock: timeout", zap.String("key", key))
			return domain.Wrap(domain.ErrLockTimeout, key)
		case <-time.After(l.cfg.RetryInterval):
		}
	}
}

// Unlock releases key if this locker still owns it
func (l *RedisLocker) Unlock(ctx context.Context, key string) error {
	v, ok := l.tokens.LoadAndDelete(key)
	if !ok {
		return fmt.Errorf("lock %s is not held", key)
	}
	released, err := releaseScript.Run(ctx, l.client, []string{keyPrefix + key}, v.(string)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if released == 0 {
		l.logger.Warn("Lock expired before release", zap.String("key", key))
	}
	return nil
}
