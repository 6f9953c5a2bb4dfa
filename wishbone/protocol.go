// Package wishbone models a classic Wishbone bus with a 32-bit data path and
// a 30-bit word address, together with the pieces that hang off it: targets
// with registered responses, an address decoder, and a shared-bus arbiter.
//
// All components are Moore machines. What a component drives in a tick
// depends only on its state, and Step commits the state for the next tick
// after sampling what its peers drive.
package wishbone

import "fmt"

// Bus widths.
const (
	AdrWidth = 30
	AdrMask  = 1<<AdrWidth - 1
	SelMask  = 0xf
)

// Request holds the signals an initiator drives.
type Request struct {
	Cyc  bool
	Stb  bool
	Adr  uint32
	Sel  uint8
	We   bool
	DatW uint32
}

// Active tells if the request asks for a transfer in this tick.
func (r Request) Active() bool {
	return r.Cyc && r.Stb
}

// ByteAddr returns the byte address of the addressed word.
func (r Request) ByteAddr() uint32 {
	return (r.Adr & AdrMask) << 2
}

func (r Request) String() string {
	if !r.Active() {
		return fmt.Sprintf("idle(cyc=%t)", r.Cyc)
	}

	if r.We {
		return fmt.Sprintf("write(adr=0x%08x, sel=0x%x, dat=0x%08x)",
			r.Adr, r.Sel, r.DatW)
	}

	return fmt.Sprintf("read(adr=0x%08x, sel=0x%x)", r.Adr, r.Sel)
}

// Response holds the signals a target drives back.
type Response struct {
	Ack  bool
	Err  bool
	DatR uint32
}

// Done tells if the response terminates the current transfer.
func (r Response) Done() bool {
	return r.Ack || r.Err
}

// Or merges two responses the way a shared bus does.
func (r Response) Or(other Response) Response {
	return Response{
		Ack:  r.Ack || other.Ack,
		Err:  r.Err || other.Err,
		DatR: r.DatR | other.DatR,
	}
}

// A Target is anything that sits on the responding side of the bus.
type Target interface {
	// Response returns what the target drives in the current tick.
	Response() Response

	// Step samples the request of the current tick and moves the target to
	// its next state. It returns true if the target changed state.
	Step(req Request) bool
}
