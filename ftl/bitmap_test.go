package ftl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapStartsAllEmpty(t *testing.T) {
	b := NewBitmap(100)
	for lba := uint64(0); lba < 100; lba++ {
		assert.True(t, b.IsEmpty(lba))
	}
}

func TestBitmapMarkWritten(t *testing.T) {
	b := NewBitmap(100)

	b.MarkWritten(42)

	assert.False(t, b.IsEmpty(42))
	assert.True(t, b.IsEmpty(41))
	assert.True(t, b.IsEmpty(43))
}

func TestBitmapMarkWrittenIsIdempotent(t *testing.T) {
	b := NewBitmap(10)

	b.MarkWritten(3)
	b.MarkWritten(3)

	assert.False(t, b.IsEmpty(3))
}

func TestBitmapCrossesWordBoundary(t *testing.T) {
	b := NewBitmap(200)

	b.MarkWritten(63)
	b.MarkWritten(64)

	assert.False(t, b.IsEmpty(63))
	assert.False(t, b.IsEmpty(64))
	assert.True(t, b.IsEmpty(65))
}
