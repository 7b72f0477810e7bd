package ftl

import "errors"

// Sentinel errors returned by Translate and its internal helpers. Callers
// use errors.Is to branch on them.
var (
	// ErrLBAOutOfRange is returned when a request names a logical address
	// at or beyond Usable().
	ErrLBAOutOfRange = errors.New("ftl: logical address out of range")

	// ErrReadOfEmptyPage is returned when a READ targets an LBA whose
	// emptiness bit is still unset.
	ErrReadOfEmptyPage = errors.New("ftl: read of never-written page")

	// ErrNoLogBlockAvailable is returned when a write needs a fresh log
	// block and the overprovision pool cannot supply one, even after a
	// shuffle attempt.
	ErrNoLogBlockAvailable = errors.New("ftl: no log block available")

	// ErrNoCleaningBlockAvailable is returned when a full log block has to
	// be merged and the merge fails: no entirely unwritten logical block has
	// a data block below the erase limit to borrow as the cleaning block, or
	// the device rejects one of the events the merge issues.
	ErrNoCleaningBlockAvailable = errors.New("ftl: no cleaning block available")

	// ErrRemapFailed is returned when a data or log block at its erase
	// limit cannot be remapped: no destination block is available, or the
	// device rejects one of the read/write events the remap issues.
	ErrRemapFailed = errors.New("ftl: remap operation failed")

	// ErrUnknownOperation is returned when Translate is asked to perform
	// an device.EventType it does not recognize.
	ErrUnknownOperation = errors.New("ftl: unknown operation")
)
