// Package ftl implements the flash translation layer: the LBA-to-PBA
// mapping, the log-block write buffer, and the integrated cleaning and
// wear-balancing that keep that mapping alive as blocks wear out.
package ftl

import (
	"context"

	"github.com/sarchlab/flashftl/address"
	"github.com/sarchlab/flashftl/device"
	"github.com/sarchlab/flashftl/diagnostics"
)

// Comp is the host-facing flash translation layer component. It owns no
// storage of its own — every READ/WRITE/ERASE it resolves is issued against
// the configured device.Device — only the mapping and bookkeeping state
// that decides which physical page a logical address currently lives at.
type Comp struct {
	diagnostics.Base

	geometry address.Geometry
	dev      device.Device

	bitmap   *Bitmap
	l2p      *L2PTable
	d2l      *D2LTable
	logPages map[uint64]*LogPageList
	pool     *Pool
}

// New constructs a Comp from the given geometry and device. Every logical
// block starts unmapped (identity L2P), no data block has a log block, and
// the pool starts seeded with every overprovision block.
func New(g address.Geometry, dev device.Device) *Comp {
	c := &Comp{
		geometry: g,
		dev:      dev,
		bitmap:   NewBitmap(g.Usable()),
		l2p:      NewL2PTable(g.NumLogicalBlocks()),
		d2l:      NewD2LTable(g.NumPhysicalBlocks()),
		logPages: make(map[uint64]*LogPageList),
	}

	seed := make([]uint64, 0, g.NumPhysicalBlocks()-g.NumLogicalBlocks())
	for b := g.NumLogicalBlocks(); b < g.NumPhysicalBlocks(); b++ {
		seed = append(seed, b)
	}
	c.pool = NewPool(seed)

	return c
}

// Translate resolves ev's logical address to a physical address, issues the
// resulting READ/WRITE/ERASE against the device, and returns the outcome.
// ev.Type must be device.Read or device.Write; Translate never synthesizes
// ERASE requests itself — those are only ever issued internally by cleaning
// and shuffling.
func (c *Comp) Translate(ctx context.Context, ev *device.Event) (device.Status, error) {
	if ev.LogicalAddress >= c.geometry.Usable() {
		c.InvokeHook(diagnostics.Event{
			Pos: diagnostics.PosFailure, LogicalAddress: ev.LogicalAddress,
			Detail: "lba out of range", Cause: ErrLBAOutOfRange,
		})
		return device.Failure, ErrLBAOutOfRange
	}

	logicalBlock := ev.LogicalAddress / c.geometry.BlockSize
	pageOffset := ev.LogicalAddress % c.geometry.BlockSize
	dataBlock := c.l2p.DataBlock(logicalBlock)

	switch ev.Type {
	case device.Write:
		return c.write(ctx, ev, logicalBlock, pageOffset, dataBlock)
	case device.Read:
		return c.read(ctx, ev, logicalBlock, pageOffset, dataBlock)
	default:
		c.InvokeHook(diagnostics.Event{
			Pos: diagnostics.PosFailure, LogicalAddress: ev.LogicalAddress,
			Detail: "unrecognized operation", Cause: ErrUnknownOperation,
		})
		return device.Failure, ErrUnknownOperation
	}
}

// overEraseLimit reports whether the physical block has reached the
// configured erase limit and must not be written to again.
func (c *Comp) overEraseLimit(physicalBlock uint64) bool {
	return c.dev.EraseCountAt(physicalBlock) >= c.geometry.BlockErases
}

// isLogicalBlockEmpty reports whether every page of logicalBlock is still
// in its never-written state.
func (c *Comp) isLogicalBlockEmpty(logicalBlock uint64) bool {
	base := logicalBlock * c.geometry.BlockSize
	for i := uint64(0); i < c.geometry.BlockSize; i++ {
		if !c.bitmap.IsEmpty(base + i) {
			return false
		}
	}
	return true
}

// PoolSize reports how many overprovision blocks remain available to become
// log blocks, for the monitoring package to surface.
func (c *Comp) PoolSize() int {
	return c.pool.Len()
}

// Geometry returns the SSD geometry this Comp was built with.
func (c *Comp) Geometry() address.Geometry {
	return c.geometry
}

// logicalOwnerOf scans the L2P table for the logical block currently
// pointing at physicalDataBlock. Used by the cleaner when it needs to know
// whose mapping a given data block belongs to.
func (c *Comp) logicalOwnerOf(physicalDataBlock uint64) (logicalBlock uint64, ok bool) {
	for lb := uint64(0); lb < c.geometry.NumLogicalBlocks(); lb++ {
		if c.l2p.DataBlock(lb) == physicalDataBlock {
			return lb, true
		}
	}
	return 0, false
}
