package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[[]string](time.Second)
	c.now = func() time.Time { return now }

	c.Set("k", []string{"a"})

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []string{"a"}, v)

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Clear()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestDefaultTTL(t *testing.T) {
	c := New[int](0)
	assert.Equal(t, 5*time.Second, c.ttl)
}
