package device

import "context"

// Device is the lower collaborator the FTL issues resolved events against.
// It is a best-effort, fire-and-forget interface from the FTL's point of
// view: a single translate call does not itself branch on the returned
// Status, but the NAND implementation returns it anyway so tests can assert
// on it directly.
type Device interface {
	// Issue accepts a READ, WRITE, or ERASE event whose Address is fully
	// resolved (Page-valid for READ/WRITE, Block-valid for ERASE). It
	// updates ev.TimeTaken and returns the outcome.
	Issue(ctx context.Context, ev *Event) (Status, error)

	// EraseCountAt reports how many times the physical block with the given
	// flat block index (pba/BlockSize) has been erased. The
	// FTL's cleaning and wear-leveling decisions depend on this count.
	EraseCountAt(physicalBlock uint64) uint64
}
