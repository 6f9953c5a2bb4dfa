package bridge

import (
	"fmt"

	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/wishbone"
)

// writerState is one state of the write path.
type writerState interface {
	fmt.Stringer
	isWriterState()
}

// writeWaitAddress accepts the next AW transfer.
type writeWaitAddress struct{}

// writeWaitData accepts the single beat of a legal write.
type writeWaitData struct {
	id     uint16
	target target
}

// writeDrain discards the beats of a rejected write. The beat that arrives
// while remaining is zero is the last one.
type writeDrain struct {
	id        uint16
	remaining uint8
}

// writeForward holds the downstream bus until the target terminates the
// transfer.
type writeForward struct {
	id  uint16
	req wishbone.Request
}

// writeRespond offers the response on B until the manager takes it.
type writeRespond struct {
	rsp axi.WriteRsp
}

func (writeWaitAddress) isWriterState() {}
func (writeWaitData) isWriterState()    {}
func (writeDrain) isWriterState()       {}
func (writeForward) isWriterState()     {}
func (writeRespond) isWriterState()     {}

func (writeWaitAddress) String() string { return "WAIT_ADDRESS" }
func (writeWaitData) String() string    { return "WAIT_DATA" }
func (writeDrain) String() string       { return "DRAIN_REJECTED" }
func (writeForward) String() string     { return "FORWARD" }
func (writeRespond) String() string     { return "RESPOND" }

// writerOutputs are the signals the write path drives. They only depend on
// the state.
type writerOutputs struct {
	awReady bool
	wReady  bool
	b       axi.Channel[axi.WriteRsp]
	bus     wishbone.Request
}

func writerDrive(s writerState) writerOutputs {
	switch s := s.(type) {
	case writeWaitAddress:
		return writerOutputs{awReady: true}
	case writeWaitData, writeDrain:
		return writerOutputs{wReady: true}
	case writeForward:
		return writerOutputs{bus: s.req}
	case writeRespond:
		return writerOutputs{b: axi.Offer(s.rsp)}
	}

	panic(fmt.Sprintf("unknown writer state %T", s))
}

// writerInputs are the signals the write path samples.
type writerInputs struct {
	aw     axi.Channel[axi.WriteReq]
	w      axi.Channel[axi.WriteData]
	bReady bool

	// bus is the downstream response as seen by the write path. It is zero
	// unless the write path owns the bus.
	bus wishbone.Response
}

// writerStep is the transition function of the write path.
func writerStep(s writerState, in writerInputs) (writerState, event) {
	out := writerDrive(s)

	switch s := s.(type) {
	case writeWaitAddress:
		if !in.aw.Fire(out.awReady) {
			return s, event{}
		}

		req := in.aw.Payload
		req.ID &= axi.IDMask
		t, legal := decode(req.Addr, req.Size, req.Len)

		if !legal {
			next := writeDrain{id: req.ID, remaining: req.Len & axi.LenMask}
			return next, event{
				kind: eventRejected,
				id:   req.ID,
				addr: req.Addr,
			}
		}

		return writeWaitData{id: req.ID, target: t}, event{
			kind: eventAccepted,
			id:   req.ID,
			addr: req.Addr,
		}

	case writeDrain:
		if !in.w.Fire(out.wReady) {
			return s, event{}
		}

		ev := event{kind: eventBeatDrained, id: s.id}

		if s.remaining == 0 {
			rsp := axi.WriteRsp{ID: s.id, Resp: axi.RespSlvErr}
			return writeRespond{rsp: rsp}, ev
		}

		s.remaining--

		return s, ev

	case writeWaitData:
		if !in.w.Fire(out.wReady) {
			return s, event{}
		}

		beat := in.w.Payload
		next := writeForward{
			id: s.id,
			req: wishbone.Request{
				Cyc:  true,
				Stb:  true,
				We:   true,
				Adr:  s.target.adr,
				Sel:  beat.Strb & s.target.sel,
				DatW: beat.Data,
			},
		}

		return next, event{
			kind: eventDataAccepted,
			id:   s.id,
			bus:  next.req,
		}

	case writeForward:
		if !in.bus.Done() {
			return s, event{}
		}

		rsp := axi.WriteRsp{ID: s.id, Resp: axi.RespOkay}
		if in.bus.Err {
			rsp.Resp = axi.RespSlvErr
		}

		return writeRespond{rsp: rsp}, event{
			kind: eventBusDone,
			id:   s.id,
			resp: rsp.Resp,
		}

	case writeRespond:
		if !out.b.Fire(in.bReady) {
			return s, event{}
		}

		return writeWaitAddress{}, event{
			kind: eventResponded,
			id:   s.rsp.ID,
			resp: s.rsp.Resp,
		}
	}

	panic(fmt.Sprintf("unknown writer state %T", s))
}
