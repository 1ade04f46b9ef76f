package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestMemory() (*Memory, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	return NewMemory(WithClock(clock.Now)), clock
}

func TestMemorySetGet(t *testing.T) {
	m, _ := newTestMemory()
	m.Set("k", []int{1, 2})

	v, ok := m.Get("k", time.Minute)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, v)
}

func TestMemoryOverwrite(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("k", "old")
	clock.Advance(50 * time.Second)
	m.Set("k", "new")
	clock.Advance(50 * time.Second)

	v, ok := m.Get("k", time.Minute)
	require.True(t, ok, "overwrite must refresh the timestamp")
	assert.Equal(t, "new", v)
}

func TestMemoryExpiryEvictsOnRead(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("k", 42)

	clock.Advance(time.Minute)
	_, ok := m.Get("k", time.Minute)
	assert.True(t, ok, "an entry exactly ttl old is still fresh")

	clock.Advance(time.Millisecond)
	_, ok = m.Get("k", time.Minute)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len(), "stale entry should be evicted by the read")

	_, ok = m.Get("k", time.Hour)
	assert.False(t, ok, "evicted entry stays absent even with a longer ttl")
}

func TestMemoryUnreadStaleEntriesStayResident(t *testing.T) {
	m, clock := newTestMemory()
	m.Set("a", 1)
	m.Set("b", 2)
	clock.Advance(time.Hour)

	assert.Equal(t, 2, m.Len())
	_, _ = m.Get("a", time.Minute)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryClear(t *testing.T) {
	m, _ := newTestMemory()
	m.Set("a", 1)
	m.Set("b", 2)

	m.Clear("a")
	_, ok := m.Get("a", time.Hour)
	assert.False(t, ok)
	_, ok = m.Get("b", time.Hour)
	assert.True(t, ok)

	m.ClearAll()
	assert.Equal(t, 0, m.Len())
}

func TestMemoryClose(t *testing.T) {
	m, _ := newTestMemory()
	m.Set("a", 1)
	require.NoError(t, m.Close())

	m.Set("b", 2)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryRealClock(t *testing.T) {
	m := NewMemory()
	m.Set("k", "v")
	v, ok := m.Get("k", time.Second)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	time.Sleep(30 * time.Millisecond)
	_, ok = m.Get("k", 10*time.Millisecond)
	assert.False(t, ok)
	_, ok = m.Get("k", time.Second)
	assert.False(t, ok)
}

func TestTypedGet(t *testing.T) {
	m, _ := newTestMemory()
	m.Set("n", 7)

	n, ok := Get[int](m, "n", time.Minute)
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = Get[string](m, "n", time.Minute)
	assert.False(t, ok, "wrong type is a miss")

	_, ok = Get[int](nil, "n", time.Minute)
	assert.False(t, ok)
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				m.Set("shared", w)
				_, _ = m.Get("shared", time.Nanosecond)
				if i%50 == 0 {
					m.ClearAll()
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestLoadCachesResult(t *testing.T) {
	m, clock := newTestMemory()
	l := NewLoader(m)
	var calls int32
	fetch := func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"x"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Load(context.Background(), l, "series", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, v)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Advance(2 * time.Minute)
	_, err := Load(context.Background(), l, "series", time.Minute, fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestLoadDoesNotCacheErrors(t *testing.T) {
	m, _ := newTestMemory()
	l := NewLoader(m)
	boom := errors.New("boom")

	_, err := Load(context.Background(), l, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())

	v, err := Load(context.Background(), l, "k", time.Minute, func(context.Context) (int, error) {
		return 5, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestLoadDeduplicatesConcurrentMisses(t *testing.T) {
	l := NewLoader(NewMemory())
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Load(context.Background(), l, "k", time.Minute, fetch)
			assert.NoError(t, err)
			assert.Equal(t, 1, v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
	v, ok := Get[int](l.Store(), "k", time.Minute)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}
