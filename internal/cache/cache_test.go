package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/futig/diagram-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T, opts ...Option) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(time.Hour, zap.NewNop(), opts...)
	t.Cleanup(c.Close)
	return c
}

func resultWithModel(model string) *entity.PipelineResult {
	return &entity.PipelineResult{
		Success:  true,
		Artifact: "<!DOCTYPE html><html></html>",
		Metadata: entity.ResultMetadata{Model: model, Iterations: 1},
	}
}

func TestGetAfterSetReturnsStoredValue(t *testing.T) {
	c := newTestCache(t)

	want := resultWithModel("m1")
	c.Set("k", want)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, want, got)
}

func TestGetMissingKey(t *testing.T) {
	c := newTestCache(t)

	got, ok := c.Get("absent")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestExpiredEntryIsDeletedOnRead(t *testing.T) {
	c := newTestCache(t)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.SetTTL("k", resultWithModel("m1"), time.Minute)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	got, ok := c.Get("k")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Stats().Size)
}

func TestLRUEvictionRemovesLeastRecentlyAccessed(t *testing.T) {
	c := newTestCache(t, WithCapacity(3))

	c.Set("a", resultWithModel("a"))
	c.Set("b", resultWithModel("b"))
	c.Set("c", resultWithModel("c"))

	// Touch "a" so "b" becomes the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", resultWithModel("d"))

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently accessed entry should be evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "entry %q should survive eviction", key)
	}
	assert.Equal(t, 3, c.Stats().Size)
}

func TestUpdatingExistingKeyNeverEvicts(t *testing.T) {
	c := newTestCache(t, WithCapacity(2))

	c.Set("a", resultWithModel("a1"))
	c.Set("b", resultWithModel("b"))
	c.Set("a", resultWithModel("a2"))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a2", got.Metadata.Model)

	_, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t)

	c.Set("k", resultWithModel("m"))
	assert.True(t, c.Invalidate("k"))
	assert.False(t, c.Invalidate("k"))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	c := newTestCache(t)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), resultWithModel("m"))
	}
	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)
	_, ok := c.Get("k0")
	assert.False(t, ok)
}

func TestStatsTracksAccessExtremes(t *testing.T) {
	c := newTestCache(t, WithCapacity(10))

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("old", resultWithModel("m"))

	c.now = func() time.Time { return base.Add(time.Minute) }
	c.Set("new", resultWithModel("m"))

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 10, stats.Capacity)
	assert.Equal(t, base, stats.OldestAccess)
	assert.Equal(t, base.Add(time.Minute), stats.NewestAccess)
}

func TestSweepRemovesAllExpiredEntries(t *testing.T) {
	c := newTestCache(t)

	base := time.Now()
	c.now = func() time.Time { return base }
	c.SetTTL("short-1", resultWithModel("m"), time.Minute)
	c.SetTTL("short-2", resultWithModel("m"), time.Minute)
	c.SetTTL("long", resultWithModel("m"), time.Hour)

	c.now = func() time.Time { return base.Add(10 * time.Minute) }
	removed := c.sweep()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Stats().Size)
	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Hour, zap.NewNop())
	c.Close()
	c.Close()
}
