package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightlab/boostersim/pkg/core"
)

func TestRunCache_OpenAndGet(t *testing.T) {
	c := NewRunCache()

	_, ok := c.Get("run-1")
	assert.False(t, ok)

	c.Open("run-1", 42)
	id, ok := c.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, uint(42), id)
	assert.True(t, c.Has("run-1"))
	assert.Equal(t, 1, c.Len())
}

func TestRunCache_OpenReplaces(t *testing.T) {
	c := NewRunCache()
	c.Open("run-1", 1)
	c.AppendTrack("run-1", core.TrajectorySample{Time: 1})
	c.Open("run-1", 2)

	r, ok := c.Close("run-1")
	require.True(t, ok)
	assert.Equal(t, uint(2), r.ID)
	assert.Empty(t, r.Track)
}

func TestRunCache_AppendTrack(t *testing.T) {
	c := NewRunCache()
	assert.False(t, c.AppendTrack("missing", core.TrajectorySample{}))

	c.Open("run-1", 7)
	for i := 0; i < 3; i++ {
		assert.True(t, c.AppendTrack("run-1", core.TrajectorySample{Time: float64(i), Position: core.Vec3{Y: float64(i)}}))
	}

	r, ok := c.Close("run-1")
	require.True(t, ok)
	require.Len(t, r.Track, 3)
	assert.Equal(t, 2.0, r.Track[2].Position.Y)

	_, ok = c.Close("run-1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestRunCache_IDsAndReset(t *testing.T) {
	c := NewRunCache()
	c.Open("b", 2)
	c.Open("a", 1)
	assert.Equal(t, []string{"a", "b"}, c.IDs())

	c.Reset()
	assert.Empty(t, c.IDs())
	assert.False(t, c.Has("a"))
}

func TestRunCache_Concurrent(t *testing.T) {
	c := NewRunCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("run-%d", n)
			c.Open(id, uint(n))
			for j := 0; j < 100; j++ {
				c.AppendTrack(id, core.TrajectorySample{Time: float64(j)})
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, c.Len())
	r, ok := c.Close("run-3")
	require.True(t, ok)
	assert.Len(t, r.Track, 100)
}
