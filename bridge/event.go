package bridge

import (
	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/wishbone"
)

type eventKind int

const (
	eventNone eventKind = iota

	// eventAccepted means a legal request was accepted. For reads, the
	// downstream transfer starts in the next tick.
	eventAccepted

	// eventRejected means an illegal request was accepted.
	eventRejected

	// eventDataAccepted means the single write beat of a legal write was
	// taken and a downstream transfer starts in the next tick.
	eventDataAccepted

	// eventBeatDrained means one beat of a rejected write was discarded.
	eventBeatDrained

	eventBusDone
	eventResponded
)

// event is what a transition reports to the component so that it can trace
// and count without the transition functions having side effects.
type event struct {
	kind eventKind
	id   uint16
	addr uint32
	resp axi.Resp
	bus  wishbone.Request
}
