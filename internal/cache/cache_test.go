package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("quests_u1", "snapshot", 0)

	v, ok := c.Get("quests_u1")
	require.True(t, ok)
	assert.Equal(t, "snapshot", v)
}

func TestGetMissing(t *testing.T) {
	c := New("test", time.Minute)

	v, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestTTLExpiry(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("key", 42, 100*time.Millisecond)

	v, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	time.Sleep(150 * time.Millisecond)

	v, ok = c.Get("key")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestInvalidate(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("key", "value", 0)
	c.Invalidate("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestInvalidateByPrefixScope(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("quests_u1", 1, 0)
	c.Set("quests_u2", 2, 0)
	c.Set("friends_u1", 3, 0)

	removed := c.InvalidateByPrefix("quests_")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("quests_u1")
	assert.False(t, ok)
	_, ok = c.Get("quests_u2")
	assert.False(t, ok)

	v, ok := c.Get("friends_u1")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestClear(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Clear()

	assert.Equal(t, 0, c.GetStats().EntryCount)
}

func TestPurgeRemovesOnlyExpired(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("dead", 1, time.Millisecond)
	c.Set("alive", 2, time.Minute)
	time.Sleep(10 * time.Millisecond)

	removed := c.Purge()
	assert.Equal(t, 1, removed)

	_, ok := c.Get("alive")
	assert.True(t, ok)
}

func TestStatsCounters(t *testing.T) {
	c := New("test", time.Minute)

	c.Get("miss")
	c.Set("hit", 1, 0)
	c.Get("hit")

	stats := c.GetStats()
	assert.Equal(t, "test", stats.Name)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.EntryCount)
}

// Concurrent readers and writers must not race; run with -race.
func TestConcurrentAccess(t *testing.T) {
	c := New("test", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Set("quests_u1", "v", 0)
			c.InvalidateByPrefix("quests_")
		}()
		go func() {
			defer wg.Done()
			c.Get("quests_u1")
			c.GetStats()
		}()
	}
	wg.Wait()
}

func TestNewTiers(t *testing.T) {
	tiers := NewTiers()

	assert.Len(t, tiers.All(), 4)
	assert.Equal(t, TierStatic, tiers.Static.GetStats().Name)
	assert.Equal(t, TierRealtime, tiers.Realtime.GetStats().Name)

	tiers.Dynamic.Set("quests_u1", 1, 0)
	tiers.ClearAll()
	assert.Equal(t, 0, tiers.Dynamic.GetStats().EntryCount)
}
