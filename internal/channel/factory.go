//go:build !debug

package channel

// New returns a buffered channel of the given size. Debug builds return an
// unbuffered one instead, which surfaces producers that rely on buffering.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
