package ftl

import (
	"context"

	"github.com/sarchlab/flashftl/device"
	"github.com/sarchlab/flashftl/diagnostics"
)

// write resolves a WRITE event. The four cases, in order: the page has
// never been written (goes straight to its data block); its data block has
// a log block with a free page (appended there); its log block is full
// (triggers remap-then-clean, then gets the first page of the emptied log
// block); or its data block has no log block at all yet (one is drawn from
// the pool).
func (c *Comp) write(ctx context.Context, ev *device.Event, logicalBlock, pageOffset, dataBlock uint64) (device.Status, error) {
	lba := ev.LogicalAddress

	if c.bitmap.IsEmpty(lba) {
		c.bitmap.MarkWritten(lba)
		ev.Address = c.geometry.Decompose(dataBlock*c.geometry.BlockSize + pageOffset)
		status, err := c.dev.Issue(ctx, ev)
		c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosFirstTimeWrite, LogicalAddress: lba, Cause: err})
		return status, err
	}

	logBlock, hasLog := c.d2l.LogBlock(dataBlock)
	if !hasLog {
		newLog, ok := c.nextUnmappedLogBlock()
		if !ok {
			c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosFailure, LogicalAddress: lba, Cause: ErrNoLogBlockAvailable})
			return device.Failure, ErrNoLogBlockAvailable
		}

		// A shuffle run while drawing the log block may have moved this
		// logical block onto a different data block.
		dataBlock = c.l2p.DataBlock(logicalBlock)
		c.d2l.SetLogBlock(dataBlock, newLog)
		list := NewLogPageList(c.geometry.BlockSize)
		idx, _ := list.Append(int(pageOffset))
		c.logPages[newLog] = list

		ev.Address = c.geometry.Decompose(newLog*c.geometry.BlockSize + uint64(idx))
		status, err := c.dev.Issue(ctx, ev)
		c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosLogAppend, LogicalAddress: lba, Cause: err})
		return status, err
	}

	list := c.logPages[logBlock]
	if idx, ok := list.Append(int(pageOffset)); ok {
		ev.Address = c.geometry.Decompose(logBlock*c.geometry.BlockSize + uint64(idx))
		status, err := c.dev.Issue(ctx, ev)
		c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosLogAppend, LogicalAddress: lba, Cause: err})
		return status, err
	}

	c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosCleanStart, LogicalAddress: lba})

	newDataBlock, newLogBlock := dataBlock, logBlock

	if c.overEraseLimit(newDataBlock) {
		nb, ok := c.remapDataBlock(ctx, logicalBlock, newDataBlock, newLogBlock)
		if !ok {
			c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosFailure, LogicalAddress: lba, Cause: ErrRemapFailed})
			return device.Failure, ErrRemapFailed
		}
		newDataBlock = nb
	}

	if c.overEraseLimit(newLogBlock) {
		nl, ok := c.remapLogBlock(ctx, logicalBlock, newDataBlock, newLogBlock)
		if !ok {
			c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosFailure, LogicalAddress: lba, Cause: ErrRemapFailed})
			return device.Failure, ErrRemapFailed
		}
		newLogBlock = nl
	}

	if !c.clean(ctx, logicalBlock, newDataBlock, newLogBlock) {
		c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosFailure, LogicalAddress: lba, Cause: ErrNoCleaningBlockAvailable})
		return device.Failure, ErrNoCleaningBlockAvailable
	}

	freshList := NewLogPageList(c.geometry.BlockSize)
	idx, _ := freshList.Append(int(pageOffset))
	c.logPages[newLogBlock] = freshList

	ev.Address = c.geometry.Decompose(newLogBlock*c.geometry.BlockSize + uint64(idx))
	status, err := c.dev.Issue(ctx, ev)
	c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosCleanDone, LogicalAddress: lba, Cause: err})
	return status, err
}

// read resolves a READ event: fail on a never-written page, else prefer the
// latest log-block copy, falling back to the data block.
func (c *Comp) read(ctx context.Context, ev *device.Event, logicalBlock, pageOffset, dataBlock uint64) (device.Status, error) {
	lba := ev.LogicalAddress

	if c.bitmap.IsEmpty(lba) {
		c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosFailure, LogicalAddress: lba, Cause: ErrReadOfEmptyPage})
		return device.Failure, ErrReadOfEmptyPage
	}

	if logBlock, ok := c.d2l.LogBlock(dataBlock); ok {
		if list := c.logPages[logBlock]; list != nil {
			if idx, ok := list.FindLast(int(pageOffset)); ok {
				ev.Address = c.geometry.Decompose(logBlock*c.geometry.BlockSize + uint64(idx))
				status, err := c.dev.Issue(ctx, ev)
				c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosReadHit, LogicalAddress: lba, Cause: err})
				return status, err
			}
		}
	}

	ev.Address = c.geometry.Decompose(dataBlock*c.geometry.BlockSize + pageOffset)
	status, err := c.dev.Issue(ctx, ev)
	c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosReadHit, LogicalAddress: lba, Cause: err})
	return status, err
}
