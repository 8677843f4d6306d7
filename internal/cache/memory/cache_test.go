package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func TestCacheGetAfterSet(t *testing.T) {
	t.Parallel()

	c := New(newManualClock(time.Unix(0, 0)))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("body"), time.Hour))
	for i := 0; i < 3; i++ {
		got, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("body"), got)
	}
}

func TestCacheMissingKey(t *testing.T) {
	t.Parallel()

	got, ok, err := New(nil).Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	clk := newManualClock(time.Unix(1_700_000_000, 0))
	c := New(clk)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("body"), 3600*time.Second))

	clk.Advance(3599 * time.Second)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheStoresCopies(t *testing.T) {
	t.Parallel()

	c := New(nil)
	ctx := context.Background()
	payload := []byte("content")
	require.NoError(t, c.Set(ctx, "k", payload, time.Minute))
	payload[0] = 'C'

	got, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))

	got[0] = 'X'
	again, _, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "content", string(again))
}

func TestCacheOverwriteResetsExpiry(t *testing.T) {
	t.Parallel()

	clk := newManualClock(time.Unix(0, 0))
	c := New(clk)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v1"), time.Minute))
	clk.Advance(50 * time.Second)
	require.NoError(t, c.Set(ctx, "k", []byte("v2"), time.Minute))
	clk.Advance(50 * time.Second)

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", string(got))
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			_ = c.Set(ctx, key, []byte(key), time.Minute)
			_, _, _ = c.Get(ctx, key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, c.Len())
}
