package ftl

import (
	"context"

	"github.com/sarchlab/flashftl/device"
	"github.com/sarchlab/flashftl/diagnostics"
)

// nextUnmappedLogBlock draws the next available log block from the pool,
// triggering a wear-balancing shuffle first if the pool has run dry.
func (c *Comp) nextUnmappedLogBlock() (uint64, bool) {
	if c.pool.Len() == 0 {
		if !c.shuffleDataLog() {
			return 0, false
		}
	}
	return c.pool.Pop(c.overEraseLimit)
}

// findEmptyDataBlockForCleaning locates a physical data block that is
// currently entirely unwritten and has the lowest erase count short of the
// limit — the scratch block clean borrows to merge a data/log pair into.
func (c *Comp) findEmptyDataBlockForCleaning() (physicalBlock uint64, ok bool) {
	minCount := c.geometry.BlockErases + 1
	for lb := uint64(0); lb < c.geometry.NumLogicalBlocks(); lb++ {
		data := c.l2p.DataBlock(lb)
		if !c.isLogicalBlockEmpty(lb) {
			continue
		}
		count := c.dev.EraseCountAt(data)
		if count < minCount && count < c.geometry.BlockErases {
			minCount = count
			physicalBlock = data
			ok = true
		}
	}
	return physicalBlock, ok
}

// findEmptyDataBlockForRemapping is findEmptyDataBlockForCleaning plus the
// logical block currently owning the candidate, for callers that need to
// repoint that owner's mapping too.
func (c *Comp) findEmptyDataBlockForRemapping() (physicalBlock, logicalBlock uint64, ok bool) {
	minCount := c.geometry.BlockErases + 1
	for lb := uint64(0); lb < c.geometry.NumLogicalBlocks(); lb++ {
		data := c.l2p.DataBlock(lb)
		if !c.isLogicalBlockEmpty(lb) {
			continue
		}
		count := c.dev.EraseCountAt(data)
		if count < minCount && count < c.geometry.BlockErases {
			minCount = count
			physicalBlock = data
			logicalBlock = lb
			ok = true
		}
	}
	return physicalBlock, logicalBlock, ok
}

// findLeastErasedUnmappedDataBlock finds the physical data block, among
// those with no log block currently attached, with the fewest erases —
// shuffleDataLog's donor of a lightly-worn slot.
func (c *Comp) findLeastErasedUnmappedDataBlock() (physicalBlock uint64, ok bool) {
	minCount := c.geometry.BlockErases + 1
	for lb := uint64(0); lb < c.geometry.NumLogicalBlocks(); lb++ {
		data := c.l2p.DataBlock(lb)
		if _, mapped := c.d2l.LogBlock(data); mapped {
			continue
		}
		count := c.dev.EraseCountAt(data)
		if count < minCount {
			minCount = count
			physicalBlock = data
			ok = true
		}
	}
	if !ok || minCount >= c.geometry.BlockErases-1 {
		return 0, false
	}
	return physicalBlock, true
}

// clean merges logBlock's pages into dataBlock, using a borrowed empty data
// block as scratch space so neither block is ever read from and written to
// at the same physical address in the same step:
//
//  1. copy every written page of logicalBlock into the scratch block, each
//     page's latest copy (log block if present there, else data block);
//  2. erase the data block and the log block;
//  3. copy every written page back out of the scratch block into the
//     now-empty data block;
//  4. erase the scratch block, returning it to its prior empty state.
//
// The event ordering above matters: the data and log blocks must not be
// erased until every page that might still be read from them has already
// been copied out.
func (c *Comp) clean(ctx context.Context, logicalBlock, dataBlock, logBlock uint64) bool {
	scratch, ok := c.findEmptyDataBlockForCleaning()
	if !ok {
		return false
	}

	list := c.logPages[logBlock]
	bs := c.geometry.BlockSize

	for i := uint64(0); i < bs; i++ {
		lba := logicalBlock*bs + i
		if c.bitmap.IsEmpty(lba) {
			continue
		}

		var srcPBA uint64
		if list != nil {
			if idx, found := list.FindLast(int(i)); found {
				srcPBA = logBlock*bs + uint64(idx)
			} else {
				srcPBA = dataBlock*bs + i
			}
		} else {
			srcPBA = dataBlock*bs + i
		}

		if !c.copyPage(ctx, lba, srcPBA, scratch*bs+i) {
			return false
		}
	}

	if !c.eraseBlock(ctx, logicalBlock, dataBlock) {
		return false
	}
	if !c.eraseBlock(ctx, logicalBlock, logBlock) {
		return false
	}

	for i := uint64(0); i < bs; i++ {
		lba := logicalBlock*bs + i
		if c.bitmap.IsEmpty(lba) {
			continue
		}
		if !c.copyPage(ctx, lba, scratch*bs+i, dataBlock*bs+i) {
			return false
		}
	}

	if !c.eraseBlock(ctx, logicalBlock, scratch) {
		return false
	}

	return true
}

// remapDataBlock relocates logicalBlock's data block to a fresh one (drawn
// first from an empty data block, falling back to the log-block pool),
// carrying forward every page not already superseded by a log-block copy.
// The log block keeps its identity and its page list — only the data block
// underneath it changes.
func (c *Comp) remapDataBlock(ctx context.Context, logicalBlock, oldDataBlock, logBlock uint64) (newDataBlock uint64, ok bool) {
	newData, displacedOwner, foundEmpty := c.findEmptyDataBlockForRemapping()
	if !foundEmpty {
		nb, ok := c.nextUnmappedLogBlock()
		if !ok {
			return 0, false
		}
		newData = nb
	}

	bs := c.geometry.BlockSize
	list := c.logPages[logBlock]

	for i := uint64(0); i < bs; i++ {
		lba := logicalBlock*bs + i
		if c.bitmap.IsEmpty(lba) {
			continue
		}
		if list != nil {
			if _, found := list.FindLast(int(i)); found {
				continue // a fresher copy lives in the log block
			}
		}
		if !c.copyPage(ctx, lba, oldDataBlock*bs+i, newData*bs+i) {
			return 0, false
		}
	}

	if foundEmpty {
		c.l2p.SetDataBlock(displacedOwner, oldDataBlock)
	}
	c.l2p.SetDataBlock(logicalBlock, newData)
	c.d2l.ClearLogBlock(oldDataBlock)
	c.d2l.SetLogBlock(newData, logBlock)

	c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosRemapData, LogicalAddress: logicalBlock * bs})

	return newData, true
}

// remapLogBlock relocates dataBlock's log block to a fresh one, compacting
// forward only the latest log copy of each page offset the log holds (older
// duplicate entries are dropped; pages never routed through the log keep
// falling back to the data block as before).
func (c *Comp) remapLogBlock(ctx context.Context, logicalBlock, dataBlock, oldLogBlock uint64) (newLogBlock uint64, ok bool) {
	newLog, found := c.nextUnmappedLogBlock()
	if !found {
		return 0, false
	}

	bs := c.geometry.BlockSize
	oldList := c.logPages[oldLogBlock]
	newList := NewLogPageList(bs)

	for i := uint64(0); i < bs; i++ {
		lba := logicalBlock*bs + i
		if c.bitmap.IsEmpty(lba) {
			continue
		}
		if oldList == nil {
			continue
		}
		idx, found := oldList.FindLast(int(i))
		if !found {
			continue
		}
		destIdx, _ := newList.Append(int(i))
		if !c.copyPage(ctx, lba, oldLogBlock*bs+uint64(idx), newLog*bs+uint64(destIdx)) {
			return 0, false
		}
	}

	c.d2l.ClearLogBlock(dataBlock)
	c.d2l.SetLogBlock(dataBlock, newLog)
	c.logPages[newLog] = newList
	delete(c.logPages, oldLogBlock)

	c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosRemapLog, LogicalAddress: logicalBlock * bs})

	return newLog, true
}

// shuffleDataLog is the opportunistic wear-leveling step: it picks the most
// worn still-usable data/log pair, cleans it down to a single data block,
// moves the least-worn currently unmapped data block's contents into the
// freshly erased ex-log block (which takes over that block's logical
// owner), and pushes the erased donor onto the pool — moving future log
// wear onto fresher silicon.
// It is only ever invoked as a fallback when the log-block pool is empty.
func (c *Comp) shuffleDataLog() bool {
	bs := c.geometry.BlockSize

	var maxLog, maxData uint64
	maxCount := uint64(0)
	foundPair := false

	for b := uint64(0); b < c.geometry.NumPhysicalBlocks(); b++ {
		data := b
		logBlock, mapped := c.d2l.LogBlock(data)
		if !mapped {
			continue
		}
		logCount := c.dev.EraseCountAt(logBlock)
		dataCount := c.dev.EraseCountAt(data)
		if logCount == c.geometry.BlockErases || dataCount == c.geometry.BlockErases {
			continue
		}
		if sum := logCount + dataCount; sum >= maxCount || !foundPair {
			maxCount = sum
			maxLog = logBlock
			maxData = data
			foundPair = true
		}
	}
	if !foundPair {
		return false
	}

	logicalBlock, ok := c.logicalOwnerOf(maxData)
	if !ok {
		return false
	}

	minData, ok := c.findLeastErasedUnmappedDataBlock()
	if !ok {
		return false
	}

	if !c.clean(context.Background(), logicalBlock, maxData, maxLog) {
		return false
	}
	c.d2l.ClearLogBlock(maxData)
	delete(c.logPages, maxLog)

	// Re-resolve the donor's logical owner after clean, since clean never
	// changes L2P/D2L itself but the caller must not assume the mapping
	// found before the merge still reflects reality.
	donorLogical, ok := c.logicalOwnerOf(minData)
	if !ok {
		return false
	}

	for i := uint64(0); i < bs; i++ {
		lba := donorLogical*bs + i
		if c.bitmap.IsEmpty(lba) {
			continue
		}
		if !c.copyPage(context.Background(), lba, minData*bs+i, maxLog*bs+i) {
			return false
		}
	}

	if !c.eraseBlock(context.Background(), donorLogical, minData) {
		return false
	}

	c.l2p.SetDataBlock(donorLogical, maxLog)
	c.pool.Push(minData)

	c.InvokeHook(diagnostics.Event{Pos: diagnostics.PosShuffle, LogicalAddress: donorLogical * bs})

	return true
}

// copyPage issues a READ of lba from srcPBA followed by a WRITE of lba to
// dstPBA, as a single logical relocation step used by cleaning, remapping,
// and shuffling.
func (c *Comp) copyPage(ctx context.Context, lba, srcPBA, dstPBA uint64) bool {
	readEv := device.NewEvent(device.Read, lba, 0)
	readEv.Address = c.geometry.Decompose(srcPBA)
	if _, err := c.dev.Issue(ctx, readEv); err != nil {
		return false
	}

	writeEv := device.NewEvent(device.Write, lba, 0)
	writeEv.Address = c.geometry.Decompose(dstPBA)
	if _, err := c.dev.Issue(ctx, writeEv); err != nil {
		return false
	}

	return true
}

// eraseBlock issues an ERASE for the whole physical block, addressed at
// block granularity.
func (c *Comp) eraseBlock(ctx context.Context, logicalBlock, physicalBlock uint64) bool {
	ev := device.NewEvent(device.Erase, logicalBlock*c.geometry.BlockSize, 0)
	ev.Address = c.geometry.BlockAddress(physicalBlock * c.geometry.BlockSize)
	_, err := c.dev.Issue(ctx, ev)
	return err == nil
}
