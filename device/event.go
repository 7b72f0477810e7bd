// Package device defines the lower-device collaborator contract the FTL
// issues READ/WRITE/ERASE events against, plus an in-memory NAND page-state
// simulator implementing it. The hierarchical timing model (bus/channel
// scheduling, per-package/die/plane wear stats, RAM delay queueing) that the
// real simulator layers on top of this is out of scope here — only the page
// state machine the FTL's correctness depends on is modeled.
package device

import (
	"github.com/rs/xid"

	"github.com/sarchlab/flashftl/address"
)

// EventType is the kind of request the FTL issues to the lower device.
type EventType int

// Event types the device understands.
const (
	Read EventType = iota
	Write
	Erase
)

func (t EventType) String() string {
	switch t {
	case Read:
		return "READ"
	case Write:
		return "WRITE"
	case Erase:
		return "ERASE"
	default:
		return "UNKNOWN"
	}
}

// Status is the general outcome of an operation.
type Status int

// Outcomes.
const (
	Failure Status = iota
	Success
)

func (s Status) String() string {
	if s == Success {
		return "SUCCESS"
	}
	return "FAILURE"
}

// PageState is the state of a single physical page in the device.
type PageState int

// Page states, mirroring the original simulator: a page ready for writing
// holds no valid data; once written it is valid; once superseded it is
// invalid (the FTL never issues writes to Invalid pages, so this repository
// never actually produces one, but the state exists for completeness of the
// device model).
const (
	Empty PageState = iota
	Valid
	Invalid
)

// Event is a single I/O request flowing between the FTL and the lower
// device. LogicalAddress is carried through for bookkeeping/diagnostics;
// Address is the fully resolved physical address the FTL computed.
type Event struct {
	ID             string
	Type           EventType
	LogicalAddress uint64
	Address        address.Address
	StartTime      float64
	TimeTaken      float64
}

// NewEvent creates an Event with a fresh ID, mirroring the teacher's
// xid-based request IDs.
func NewEvent(t EventType, logicalAddress uint64, startTime float64) *Event {
	return &Event{
		ID:             xid.New().String(),
		Type:           t,
		LogicalAddress: logicalAddress,
		StartTime:      startTime,
	}
}
