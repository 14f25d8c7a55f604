//go:build integration

package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
)

// Run with: PERLAS_TEST_REDIS_ADDR=localhost:6379 go test -tags integration ./internal/infrastructure/lock/
const redisAddrEnv = "PERLAS_TEST_REDIS_ADDR"

func newRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	addr := os.Getenv(redisAddrEnv)
	if addr == "" {
		t.Skipf("%s not set", redisAddrEnv)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker_ReplicasSerialize(t *testing.T) {
	client := newRedisClient(t)
	key := "test:" + t.Name() + ":" + time.Now().Format(time.RFC3339Nano)
	cfg := RedisConfig{TTL: 5 * time.Second, Timeout: 5 * time.Second, RetryInterval: 5 * time.Millisecond}

	var (
		wg        sync.WaitGroup
		inside    int32
		maxInside int32
	)
	for i := 0; i < 4; i++ {
		replica := NewRedisLocker(client, cfg, logger.NewNop())
		for j := 0; j < 5; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !assert.NoError(t, replica.Lock(context.Background(), key)) {
					return
				}
				n := atomic.AddInt32(&inside, 1)
				for {
					cur := atomic.LoadInt32(&maxInside)
					if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				assert.NoError(t, replica.Unlock(context.Background(), key))
			}()
		}
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestRedisLocker_TimeoutAndExpiry(t *testing.T) {
	client := newRedisClient(t)
	key := "test:" + t.Name() + ":" + time.Now().Format(time.RFC3339Nano)

	holder := NewRedisLocker(client, RedisConfig{TTL: 200 * time.Millisecond}, logger.NewNop())
	waiter := NewRedisLocker(client, RedisConfig{Timeout: 50 * time.Millisecond, RetryInterval: 5 * time.Millisecond}, logger.NewNop())

	require.NoError(t, holder.Lock(context.Background(), key))
	err := waiter.Lock(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	time.Sleep(250 * time.Millisecond)
	require.NoError(t, waiter.Lock(context.Background(), key))

	// the expired holder must not release the waiter's lock
	assert.NoError(t, holder.Unlock(context.Background(), key))
	token, err := client.Get(context.Background(), keyPrefix+key).Result()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, waiter.Unlock(context.Background(), key))
}
