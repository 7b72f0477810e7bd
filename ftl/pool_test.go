package ftl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolPopIsLIFO(t *testing.T) {
	p := NewPool([]uint64{10, 11, 12})

	b, ok := p.Pop(func(uint64) bool { return false })

	assert.True(t, ok)
	assert.Equal(t, uint64(12), b)
	assert.Equal(t, 2, p.Len())
}

func TestPoolPopDiscardsOverLimitBlocks(t *testing.T) {
	p := NewPool([]uint64{10, 11, 12})

	overLimit := func(b uint64) bool { return b == 12 || b == 11 }

	b, ok := p.Pop(overLimit)

	assert.True(t, ok)
	assert.Equal(t, uint64(10), b)
	assert.Equal(t, 0, p.Len())
}

func TestPoolPopReturnsFalseWhenFullyDrained(t *testing.T) {
	p := NewPool([]uint64{10, 11})

	_, ok := p.Pop(func(uint64) bool { return true })

	assert.False(t, ok)
	assert.Equal(t, 0, p.Len())
}

func TestPoolPush(t *testing.T) {
	p := NewPool(nil)

	p.Push(5)

	assert.Equal(t, 1, p.Len())

	b, ok := p.Pop(func(uint64) bool { return false })
	assert.True(t, ok)
	assert.Equal(t, uint64(5), b)
}
