package ftl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL2PTableStartsIdentity(t *testing.T) {
	l2p := NewL2PTable(10)

	for lb := uint64(0); lb < 10; lb++ {
		assert.Equal(t, lb, l2p.DataBlock(lb))
	}
}

func TestL2PTableSetDataBlock(t *testing.T) {
	l2p := NewL2PTable(10)

	l2p.SetDataBlock(3, 7)

	assert.Equal(t, uint64(7), l2p.DataBlock(3))
	assert.Equal(t, uint64(4), l2p.DataBlock(4))
}

func TestL2PTableDataPBA(t *testing.T) {
	l2p := NewL2PTable(10)
	l2p.SetDataBlock(2, 5)

	assert.Equal(t, uint64(20), l2p.DataPBA(2, 4))
}

func TestD2LTableStartsUnmapped(t *testing.T) {
	d2l := NewD2LTable(10)

	_, ok := d2l.LogBlock(4)

	assert.False(t, ok)
}

func TestD2LTableSetAndClear(t *testing.T) {
	d2l := NewD2LTable(10)

	d2l.SetLogBlock(4, 9)
	log, ok := d2l.LogBlock(4)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), log)

	d2l.ClearLogBlock(4)
	_, ok = d2l.LogBlock(4)
	assert.False(t, ok)
}

func TestLogPageListAppendAndFindLast(t *testing.T) {
	l := NewLogPageList(4)

	idx0, ok := l.Append(2)
	assert.True(t, ok)
	assert.Equal(t, 0, idx0)

	idx1, ok := l.Append(2)
	assert.True(t, ok)
	assert.Equal(t, 1, idx1)

	idx2, ok := l.Append(0)
	assert.True(t, ok)
	assert.Equal(t, 2, idx2)

	found, ok := l.FindLast(2)
	assert.True(t, ok)
	assert.Equal(t, 1, found)

	_, ok = l.FindLast(3)
	assert.False(t, ok)
}

func TestLogPageListFullRejectsAppend(t *testing.T) {
	l := NewLogPageList(2)

	_, ok := l.Append(0)
	assert.True(t, ok)
	_, ok = l.Append(1)
	assert.True(t, ok)

	_, ok = l.Append(0)
	assert.False(t, ok)
	assert.True(t, l.Full())
}

func TestLogPageListReset(t *testing.T) {
	l := NewLogPageList(4)
	l.Append(1)
	l.Append(2)

	l.Reset(3)

	assert.Equal(t, 1, l.Len())
	idx, ok := l.FindLast(3)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = l.FindLast(1)
	assert.False(t, ok)
}
