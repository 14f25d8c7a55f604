package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

// KeyedMutex is an in-process domain.Locker with one mutex per key
type KeyedMutex struct {
	locks   sync.Map // map[string]chan struct{}
	timeout time.Duration
	logger  *logger.Logger
}

// NewKeyedMutex creates a KeyedMutex. A non-positive timeout uses five seconds.
func NewKeyedMutex(timeout time.Duration, logger *logger.Logger) *KeyedMutex {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger.Info("KeyedMutex initialized", zap.Duration("timeout", timeout))
	return &KeyedMutex{
		timeout: timeout,
		logger:  logger.Named("KeyedMutex"),
	}
}

// Lock acquires key, giving up when ctx ends or the timeout elapses
func (m *KeyedMutex) Lock(ctx context.Context, key string) error {
	sem := m.getOrCreate(key)

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		m.logger.Debug("Lock acquired", zap.String("key", key))
		return nil
	case <-ctx.Done():
		m.logger.Warn("Failed to acquire lock: context cancelled", zap.String("key", key), zap.Error(ctx.Err()))
		return domain.NewAppError(domain.KindInternal, domain.ErrCodeTimeout, fmt.Sprintf("lock %s not acquired", key), ctx.Err())
	case <-timer.C:
		m.logger.Warn("Failed to acquire lock: timeout", zap.String("key", key), zap.Duration("timeout", m.timeout))
		return domain.Wrap(domain.ErrLockTimeout, key)
	}
}

// Unlock releases key
func (m *KeyedMutex) Unlock(_ context.Context, key string) error {
	v, ok := m.locks.Load(key)
	if !ok {
		m.logger.Warn("No lock found during unlock", zap.String("key", key))
		return fmt.Errorf("lock %s is not held", key)
	}
	select {
	case <-v.(chan struct{}):
		m.logger.Debug("Lock released", zap.String("key", key))
		return nil
	default:
		return fmt.Errorf("lock %s is not held", key)
	}
}

func (m *KeyedMutex) getOrCreate(key string) chan struct{} {
	if v, ok := m.locks.Load(key); ok {
		return v.(chan struct{})
	}
	actual, _ := m.locks.LoadOrStore(key, make(chan struct{}, 1))
	return actual.(chan struct{})
}
