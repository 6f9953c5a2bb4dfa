package bridge

import (
	"fmt"

	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/wishbone"
)

// readerState is one state of the read path. Each state only carries the data
// that is valid in it.
type readerState interface {
	fmt.Stringer
	isReaderState()
}

// readWaitRequest accepts the next AR transfer.
type readWaitRequest struct{}

// readForward holds the downstream bus until the target terminates the
// transfer.
type readForward struct {
	id     uint16
	target target
}

// readRespond offers the response on R until the manager takes it.
type readRespond struct {
	rsp axi.ReadRsp
}

func (readWaitRequest) isReaderState() {}
func (readForward) isReaderState()     {}
func (readRespond) isReaderState()     {}

func (readWaitRequest) String() string { return "WAIT_REQUEST" }
func (readForward) String() string     { return "FORWARD" }
func (readRespond) String() string     { return "RESPOND" }

// readerOutputs are the signals the read path drives. They only depend on the
// state.
type readerOutputs struct {
	arReady bool
	r       axi.Channel[axi.ReadRsp]
	bus     wishbone.Request
}

func readerDrive(s readerState) readerOutputs {
	switch s := s.(type) {
	case readWaitRequest:
		return readerOutputs{arReady: true}
	case readForward:
		return readerOutputs{
			bus: wishbone.Request{
				Cyc: true,
				Stb: true,
				Adr: s.target.adr,
				Sel: s.target.sel,
			},
		}
	case readRespond:
		return readerOutputs{r: axi.Offer(s.rsp)}
	}

	panic(fmt.Sprintf("unknown reader state %T", s))
}

// readerInputs are the signals the read path samples.
type readerInputs struct {
	ar     axi.Channel[axi.ReadReq]
	rReady bool

	// bus is the downstream response as seen by the read path. It is zero
	// unless the read path owns the bus.
	bus wishbone.Response
}

// readerStep is the transition function of the read path.
func readerStep(s readerState, in readerInputs) (readerState, event) {
	out := readerDrive(s)

	switch s := s.(type) {
	case readWaitRequest:
		if !in.ar.Fire(out.arReady) {
			return s, event{}
		}

		req := in.ar.Payload
		req.ID &= axi.IDMask
		t, legal := decode(req.Addr, req.Size, req.Len)

		if !legal {
			rsp := axi.ReadRsp{ID: req.ID, Resp: axi.RespSlvErr, Last: true}
			return readRespond{rsp: rsp}, event{
				kind: eventRejected,
				id:   req.ID,
				addr: req.Addr,
			}
		}

		next := readForward{id: req.ID, target: t}

		return next, event{
			kind: eventAccepted,
			id:   req.ID,
			addr: req.Addr,
			bus:  readerDrive(next).bus,
		}

	case readForward:
		if !in.bus.Done() {
			return s, event{}
		}

		rsp := axi.ReadRsp{
			ID:   s.id,
			Data: in.bus.DatR,
			Resp: axi.RespOkay,
			Last: true,
		}
		if in.bus.Err {
			rsp.Resp = axi.RespSlvErr
		}

		return readRespond{rsp: rsp}, event{
			kind: eventBusDone,
			id:   s.id,
			resp: rsp.Resp,
		}

	case readRespond:
		if !out.r.Fire(in.rReady) {
			return s, event{}
		}

		return readWaitRequest{}, event{
			kind: eventResponded,
			id:   s.rsp.ID,
			resp: s.rsp.Resp,
		}
	}

	panic(fmt.Sprintf("unknown reader state %T", s))
}
