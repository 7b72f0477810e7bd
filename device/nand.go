package device

import (
	"context"
	"fmt"

	"github.com/sarchlab/flashftl/address"
)

// NAND is a minimal in-memory NAND flash simulator: one PageState per flat
// physical page, one erase counter per physical block. It enforces the
// page-state semantics the FTL must respect: WRITE is rejected unless the
// target page is Empty, READ is rejected unless Valid, ERASE resets every
// page in the block to Empty.
//
// It deliberately has no package/die/plane/bus contention model — those
// remain the hierarchical hardware simulator's job, out of scope here.
type NAND struct {
	geometry address.Geometry

	pageStates  []PageState
	eraseCounts []uint64

	readDelay  float64
	writeDelay float64
	eraseDelay float64

	totalErasesPerformed uint64
	totalWritesObserved  uint64
}

// NewNAND creates a NAND simulator sized for the given geometry, with every
// page Empty and every erase counter at 0.
func NewNAND(g address.Geometry) *NAND {
	return &NAND{
		geometry:    g,
		pageStates:  make([]PageState, g.Raw()),
		eraseCounts: make([]uint64, g.NumPhysicalBlocks()),
		readDelay:   0.00002,
		writeDelay:  0.0002,
		eraseDelay:  0.0015,
	}
}

// WithDelays overrides the per-page/per-block delay constants used to
// accumulate Event.TimeTaken. Optional; NewNAND's defaults are reasonable.
func (n *NAND) WithDelays(read, write, erase float64) *NAND {
	n.readDelay = read
	n.writeDelay = write
	n.eraseDelay = erase
	return n
}

// flatBlock inverts Geometry.Decompose: given the hierarchical tuple, it
// recovers the flat physical-block index (pba/BlockSize).
func (n *NAND) flatBlock(a address.Address) uint64 {
	g := n.geometry
	return ((a.Package*g.PackageSize+a.Die)*g.DieSize+a.Plane)*g.PlaneSize + a.Block
}

func (n *NAND) flatPage(a address.Address) uint64 {
	return n.flatBlock(a)*n.geometry.BlockSize + a.Page
}

// Issue implements Device.
func (n *NAND) Issue(_ context.Context, ev *Event) (Status, error) {
	switch ev.Type {
	case Read:
		return n.read(ev)
	case Write:
		return n.write(ev)
	case Erase:
		return n.erase(ev)
	default:
		return Failure, fmt.Errorf("device: unknown event type %v", ev.Type)
	}
}

func (n *NAND) read(ev *Event) (Status, error) {
	p := n.flatPage(ev.Address)
	if n.pageStates[p] != Valid {
		return Failure, fmt.Errorf("device: read of non-valid page %d", p)
	}
	ev.TimeTaken += n.readDelay
	return Success, nil
}

func (n *NAND) write(ev *Event) (Status, error) {
	p := n.flatPage(ev.Address)
	if n.pageStates[p] != Empty {
		return Failure, fmt.Errorf("device: write of non-empty page %d", p)
	}
	n.pageStates[p] = Valid
	ev.TimeTaken += n.writeDelay
	n.totalWritesObserved++
	return Success, nil
}

func (n *NAND) erase(ev *Event) (Status, error) {
	b := n.flatBlock(ev.Address)
	start := b * n.geometry.BlockSize
	for i := uint64(0); i < n.geometry.BlockSize; i++ {
		n.pageStates[start+i] = Empty
	}
	n.eraseCounts[b]++
	n.totalErasesPerformed++
	ev.TimeTaken += n.eraseDelay
	return Success, nil
}

// PageStateAt reports the state of the page at the given flat physical
// address. Exposed for tests and the monitoring package only.
func (n *NAND) PageStateAt(pba uint64) PageState {
	return n.pageStates[pba]
}

// EraseCountAt reports the erase count of the physical block with the given
// flat block index (pba/BlockSize). It implements Device; the FTL, tests and
// the monitoring package read it.
func (n *NAND) EraseCountAt(physicalBlock uint64) uint64 {
	return n.eraseCounts[physicalBlock]
}

// TotalErasesPerformed returns the cumulative number of ERASE events
// observed across the device's lifetime.
func (n *NAND) TotalErasesPerformed() uint64 {
	return n.totalErasesPerformed
}

// TotalWritesObserved returns the cumulative number of successful WRITE
// events observed across the device's lifetime.
func (n *NAND) TotalWritesObserved() uint64 {
	return n.totalWritesObserved
}
