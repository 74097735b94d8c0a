package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("key", "value")
	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.SetWithTTL("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestCache_Delete(t *testing.T) {
	c := New(time.Minute)
	defer c.Close()

	c.Set("key", 1)
	c.Delete("key")
	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestCache_CleanupLoop(t *testing.T) {
	c := New(20 * time.Millisecond)
	defer c.Close()

	c.Set("key", "value")
	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New(time.Minute)
	c.Close()
	c.Close()
}
