package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerovue/photomatch/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test")
}

func TestPool_ExecutesSubmittedTasks(t *testing.T) {
	// Arrange
	pool := NewPool(2, 8, testLogger())
	var count atomic.Int64
	var wg sync.WaitGroup

	// Act
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := pool.Submit(func(ctx context.Context) {
			defer wg.Done()
			count.Add(1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	pool.Close()

	// Assert
	assert.Equal(t, int64(5), count.Load())
}

func TestPool_SubmitFailsFastWhenQueueFull(t *testing.T) {
	// Single worker, single queue slot. Block the worker so the slot
	// stays occupied.
	pool := NewPool(1, 1, testLogger())
	defer pool.Close()

	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, pool.Submit(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	// Fills the one queue slot
	require.NoError(t, pool.Submit(func(ctx context.Context) {}))

	// Queue is now full; submission must not block
	done := make(chan error, 1)
	go func() {
		done <- pool.Submit(func(ctx context.Context) {})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(release)
}

func TestPool_CloseDrainsQueuedTasks(t *testing.T) {
	pool := NewPool(1, 16, testLogger())
	var count atomic.Int64

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func(ctx context.Context) {
			time.Sleep(time.Millisecond)
			count.Add(1)
		}))
	}

	pool.Close()

	assert.Equal(t, int64(10), count.Load())
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool(1, 1, testLogger())
	pool.Close()

	err := pool.Submit(func(ctx context.Context) {})

	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	pool := NewPool(2, 4, testLogger())

	pool.Close()
	assert.NotPanics(t, func() { pool.Close() })
}

func TestPool_RecoversFromTaskPanic(t *testing.T) {
	pool := NewPool(1, 4, testLogger())
	var ran atomic.Bool
	var wg sync.WaitGroup

	require.NoError(t, pool.Submit(func(ctx context.Context) {
		panic("boom")
	}))

	// The worker must survive the panic and keep serving tasks
	wg.Add(1)
	require.NoError(t, pool.Submit(func(ctx context.Context) {
		defer wg.Done()
		ran.Store(true)
	}))
	wg.Wait()
	pool.Close()

	assert.True(t, ran.Load())
}

func TestPool_ClampsInvalidSizes(t *testing.T) {
	pool := NewPool(0, 0, testLogger())
	defer pool.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, pool.Submit(func(ctx context.Context) { wg.Done() }))
	wg.Wait()
}
