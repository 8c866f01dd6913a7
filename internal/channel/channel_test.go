package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Channel[int] = (*Buffered[int])(nil)
	_ Channel[int] = (*Unbuffered[int])(nil)
)

func TestBuffered(t *testing.T) {
	c := NewBuffered[string](2)
	assert.True(t, c.TrySend("a"))
	c.Send("b")
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.TrySend("c"), "full buffer must not accept")

	assert.Equal(t, "a", <-c.Receive())
	assert.Equal(t, "b", <-c.Receive())
	assert.Equal(t, 0, c.Len())

	c.Close()
	_, ok := <-c.Receive()
	assert.False(t, ok)
}

func TestUnbuffered(t *testing.T) {
	c := NewUnbuffered[int]()
	assert.False(t, c.TrySend(1), "no receiver waiting")
	assert.Equal(t, 0, c.Len())

	got := make(chan int)
	go func() { got <- <-c.Receive() }()

	require.Eventually(t, func() bool { return c.TrySend(7) }, time.Second, time.Millisecond)
	assert.Equal(t, 7, <-got)
	c.Close()
}
