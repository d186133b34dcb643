package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryStore_ConcurrentIncrementsNeverUndercount(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	const goroutines = 50
	const hitsPerGoroutine = 20

	now := time.Now()
	windowStart := now.Truncate(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < hitsPerGoroutine; j++ {
				_, err := store.IncrFixedWindow(context.Background(), "k", windowStart, time.Minute, 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	count, err := store.IncrFixedWindow(context.Background(), "k", windowStart, time.Minute, 0)
	require.NoError(t, err)
	assert.Equal(t, goroutines*hitsPerGoroutine, count)
}

func TestMemoryStore_SlidingWindowEvictsOldHits(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	count, err := store.IncrSlidingWindow(ctx, "k", base, time.Minute, 2*time.Minute, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.IncrSlidingWindow(ctx, "k", base.Add(30*time.Second), time.Minute, 2*time.Minute, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The first hit falls out of the trailing window.
	count, err = store.IncrSlidingWindow(ctx, "k", base.Add(70*time.Second), time.Minute, 2*time.Minute, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStore_CloseStopsJanitor(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemoryStore(10 * time.Millisecond)
	_, err := store.IncrFixedWindow(context.Background(), "k", time.Now().Truncate(time.Minute), time.Minute, 1)
	require.NoError(t, err)
	store.Close()

	// Close is idempotent.
	store.Close()
}
