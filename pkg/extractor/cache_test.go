package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache(10, time.Hour)
	c.Set("https://example.com/a.pdf", "hello", 3)

	text, pages, ok := c.Get("https://example.com/a.pdf")
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 3, pages)
}

func TestCache_MissForUnknownURL(t *testing.T) {
	c := NewCache(10, time.Hour)
	_, _, ok := c.Get("https://example.com/missing.pdf")
	assert.False(t, ok)
}

func TestCache_ExpiresByTTL(t *testing.T) {
	c := NewCache(10, -time.Second) // already-expired TTL
	c.Set("https://example.com/a.pdf", "hello", 1)

	_, _, ok := c.Get("https://example.com/a.pdf")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, time.Hour)
	c.Set("https://example.com/a.pdf", "a", 1)
	c.Set("https://example.com/b.pdf", "b", 1)

	// Touch a so it becomes most-recently-used; b is now the LRU candidate.
	_, _, _ = c.Get("https://example.com/a.pdf")

	c.Set("https://example.com/c.pdf", "c", 1)

	_, _, ok := c.Get("https://example.com/b.pdf")
	assert.False(t, ok, "b should have been evicted as least-recently-used")

	_, _, ok = c.Get("https://example.com/a.pdf")
	assert.True(t, ok)

	_, _, ok = c.Get("https://example.com/c.pdf")
	assert.True(t, ok)

	assert.Equal(t, 2, c.Len())
}

func TestCache_SameURLHashesSameKey(t *testing.T) {
	assert.Equal(t, HashURL("https://example.com/a.pdf"), HashURL("https://example.com/a.pdf"))
	assert.NotEqual(t, HashURL("https://example.com/a.pdf"), HashURL("https://example.com/b.pdf"))
}
