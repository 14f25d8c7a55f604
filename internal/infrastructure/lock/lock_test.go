package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/perlasbingo/settlement/internal/domain"
	"github.com/perlasbingo/settlement/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex(time.Second, logger.NewNop())

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, m.Lock(context.Background(), "game:1:draw")) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, m.Unlock(context.Background(), "game:1:draw"))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	m := NewKeyedMutex(time.Second, logger.NewNop())
	require.NoError(t, m.Lock(context.Background(), "game:1:draw"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, m.Lock(ctx, "game:2:draw"))
	assert.Error(t, m.Lock(ctx, "game:1:draw"))
}

func TestKeyedMutex_Timeout(t *testing.T) {
	m := NewKeyedMutex(20*time.Millisecond, logger.NewNop())
	require.NoError(t, m.Lock(context.Background(), "k"))

	err := m.Lock(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	require.NoError(t, m.Unlock(context.Background(), "k"))
	assert.NoError(t, m.Lock(context.Background(), "k"))
}

func TestKeyedMutex_ContextCancelled(t *testing.T) {
	m := NewKeyedMutex(time.Second, logger.NewNop())
	require.NoError(t, m.Lock(context.Background(), "k"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Lock(ctx, "k")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyedMutex_UnlockNotHeld(t *testing.T) {
	m := NewKeyedMutex(time.Second, logger.NewNop())
	assert.Error(t, m.Unlock(context.Background(), "never"))

	require.NoError(t, m.Lock(context.Background(), "k"))
	require.NoError(t, m.Unlock(context.Background(), "k"))
	assert.Error(t, m.Unlock(context.Background(), "k"))
}
