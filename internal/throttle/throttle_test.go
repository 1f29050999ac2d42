package throttle

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	c.Put("a", "1")
	c.Put("b", "2")
	_, ok := c.Get("a") // promote a
	require.True(t, ok)
	c.Put("c", "3")

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 2, c.Len())
}

func TestCacheOverwriteAndPurge(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	c.Put("k", "old")
	c.Put("k", "new")
	c.Put("", "ignored")
	v, _ := c.Get("k")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCacheDefaultCapacity(t *testing.T) {
	c, err := NewCache(-1)
	require.NoError(t, err)
	for i := 0; i < DefaultCacheSize+10; i++ {
		c.Put(fmt.Sprintf("k%d", i), "v")
	}
	assert.Equal(t, DefaultCacheSize, c.Len())
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestSpamGuardTriggersOnFifthHit(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewSpamGuard(time.Minute, 5, clock.now)

	for i := 1; i <= 4; i++ {
		assert.False(t, g.Hit("hello"), "hit %d", i)
		clock.advance(time.Second)
	}
	assert.True(t, g.Hit("hello"))
	assert.False(t, g.Hit("other"), "keys are counted separately")
	assert.Equal(t, 5, g.Count("hello"))
}

func TestSpamGuardWindowSlides(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewSpamGuard(0, 0, clock.now)

	for i := 0; i < 20; i++ {
		assert.False(t, g.Hit("hello"), "spaced hit %d", i)
		clock.advance(16 * time.Second)
	}
	assert.LessOrEqual(t, g.Count("hello"), 4)

	g.Reset()
	assert.Equal(t, 0, g.Count("hello"))
}

func TestSpamGuardConcurrent(t *testing.T) {
	g := NewSpamGuard(time.Hour, 1000, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				g.Hit("k")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, g.Count("k"))
}
