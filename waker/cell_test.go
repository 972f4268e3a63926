package waker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"omibyte.io/e310/critical"
)

func wake(c *Cell) {
	critical.With(func(cs critical.Token) {
		c.Wake(cs)
	})
}

func TestCell(t *testing.T) {
	t.Run("wake without registration is lost", func(t *testing.T) {
		var c Cell
		wake(&c)

		calls := 0
		c.Register(func() { calls++ })
		assert.Equal(t, 0, calls)
		assert.True(t, c.Registered())
	})

	t.Run("wake takes the registration", func(t *testing.T) {
		var c Cell
		calls := 0
		c.Register(func() { calls++ })

		wake(&c)
		wake(&c)
		assert.Equal(t, 1, calls)
		assert.False(t, c.Registered())
	})

	t.Run("last registration wins", func(t *testing.T) {
		var c Cell
		var first, second int
		c.Register(func() { first++ })
		c.Register(func() { second++ })

		wake(&c)
		assert.Equal(t, 0, first)
		assert.Equal(t, 1, second)
	})
}

func TestSignalCoalesces(t *testing.T) {
	ch := make(chan struct{}, 1)
	w := Signal(ch)
	w()
	w()

	assert.Len(t, ch, 1)
	<-ch
	assert.Len(t, ch, 0)
}
