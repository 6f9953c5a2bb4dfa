package wishbone

import (
	"fmt"
	"log"

	"github.com/sarchlab/axi2wb/sim"
)

// A Device performs the actual access of a transfer. Returning an error makes
// the target terminate the transfer with ERR instead of ACK.
type Device interface {
	Access(req Request) (uint32, error)
}

// DeviceFunc adapts a function to a Device.
type DeviceFunc func(req Request) (uint32, error)

// Access calls f.
func (f DeviceFunc) Access(req Request) (uint32, error) {
	return f(req)
}

// HookPosAccess marks that a target has performed an access on its device.
// The item is the Request and the detail is an AccessDetail.
var HookPosAccess = &sim.HookPos{Name: "WB Access"}

// AccessDetail describes the outcome of one access.
type AccessDetail struct {
	Data uint32
	Err  error
}

type targetPhase int

const (
	phaseIdle targetPhase = iota
	phaseWaiting
	phaseResponding
)

// RegisteredTarget wraps a Device so that each transfer is terminated by
// exactly one registered ACK or ERR, WaitStates+1 ticks after the request is
// first sampled. The response is held for a single tick.
type RegisteredTarget struct {
	*sim.ComponentBase

	device     Device
	waitStates int

	phase     targetPhase
	countdown int
	req       Request
	rsp       Response
}

// NewRegisteredTarget creates a target in front of the device.
func NewRegisteredTarget(
	name string,
	device Device,
	waitStates int,
) *RegisteredTarget {
	if device == nil {
		log.Panicf("target %s: device must not be nil", name)
	}

	if waitStates < 0 {
		log.Panicf("target %s: wait states must not be negative", name)
	}

	return &RegisteredTarget{
		ComponentBase: sim.NewComponentBase(name),
		device:        device,
		waitStates:    waitStates,
	}
}

// Response returns the registered response.
func (t *RegisteredTarget) Response() Response {
	if t.phase != phaseResponding {
		return Response{}
	}

	return t.rsp
}

// Step samples the request.
func (t *RegisteredTarget) Step(req Request) bool {
	switch t.phase {
	case phaseIdle:
		if !req.Active() {
			return false
		}

		t.req = req
		t.countdown = t.waitStates
		t.phase = phaseWaiting

		if t.countdown == 0 {
			t.access()
		}

		return true
	case phaseWaiting:
		if !req.Active() {
			t.phase = phaseIdle
			return true
		}

		t.countdown--
		if t.countdown <= 0 {
			t.access()
		}

		return true
	case phaseResponding:
		t.phase = phaseIdle
		t.rsp = Response{}

		return true
	}

	panic(fmt.Sprintf("unknown target phase %d", t.phase))
}

func (t *RegisteredTarget) access() {
	data, err := t.device.Access(t.req)

	t.InvokeHook(sim.HookCtx{
		Domain: t,
		Pos:    HookPosAccess,
		Item:   t.req,
		Detail: AccessDetail{Data: data, Err: err},
	})

	t.rsp = Response{DatR: data}
	if err != nil {
		t.rsp.Err = true
	} else {
		t.rsp.Ack = true
	}

	t.phase = phaseResponding
}
