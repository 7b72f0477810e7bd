// Package address implements the geometry and address math of an SSD: the
// pure translation from a flat physical page index into the hierarchical
// (package, die, plane, block, page) tuple that the rest of the simulator's
// hardware model is built on.
package address

// ValidLevel records which fields of an Address carry meaning, mirroring
// the original simulator's address_valid enum: a request that only names a
// block (e.g. an erase) leaves Page unset.
type ValidLevel int

// Valid levels, from least to most specific.
const (
	None ValidLevel = iota
	Package
	Die
	Plane
	Block
	Page
)

// Address is a fully decomposed physical address.
type Address struct {
	Package uint64
	Die     uint64
	Plane   uint64
	Block   uint64
	Page    uint64
	Valid   ValidLevel
}

// Geometry holds the SSD shape constants that the rest of the FTL and the
// address math are parameterized over.
type Geometry struct {
	SSDSize         uint64
	PackageSize     uint64
	DieSize         uint64
	PlaneSize       uint64
	BlockSize       uint64
	BlockErases     uint64
	Overprovisioning float64 // percent, e.g. 10 for 10%
}

// Raw returns the total number of physical pages across the whole device.
func (g Geometry) Raw() uint64 {
	return g.SSDSize * g.PackageSize * g.DieSize * g.PlaneSize * g.BlockSize
}

// Overprovision returns the number of physical pages reserved and never
// exposed to the host.
func (g Geometry) Overprovision() uint64 {
	return uint64(float64(g.Raw()) * g.Overprovisioning / 100)
}

// Usable returns the number of logical pages addressable by the host.
func (g Geometry) Usable() uint64 {
	return g.Raw() - g.Overprovision()
}

// NumLogicalBlocks returns the number of logical blocks the host can address.
func (g Geometry) NumLogicalBlocks() uint64 {
	return g.Usable() / g.BlockSize
}

// NumPhysicalBlocks returns the total number of physical blocks, usable and
// overprovisioned combined.
func (g Geometry) NumPhysicalBlocks() uint64 {
	return g.Raw() / g.BlockSize
}

// Decompose translates a flat physical page address into the hierarchical
// (package, die, plane, block, page) tuple via successive divisions with
// moduli BLOCK_SIZE, PLANE_SIZE, DIE_SIZE, PACKAGE_SIZE, SSD_SIZE.
func (g Geometry) Decompose(pba uint64) Address {
	page := pba % g.BlockSize
	rest := pba / g.BlockSize
	block := rest % g.PlaneSize
	rest /= g.PlaneSize
	plane := rest % g.DieSize
	rest /= g.DieSize
	die := rest % g.PackageSize
	rest /= g.PackageSize
	pkg := rest % g.SSDSize

	return Address{
		Package: pkg,
		Die:     die,
		Plane:   plane,
		Block:   block,
		Page:    page,
		Valid:   Page,
	}
}

// BlockAddress decomposes the flat physical address of the first page of a
// block, tagging the result as Block-valid (no meaningful Page field) —
// used when emitting ERASE events, which address a whole block.
func (g Geometry) BlockAddress(physicalBlockStart uint64) Address {
	a := g.Decompose(physicalBlockStart)
	a.Page = 0
	a.Valid = Block
	return a
}
