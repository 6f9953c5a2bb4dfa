package wishbone

import (
	"log"

	"github.com/sarchlab/axi2wb/arbitration"
	"github.com/sarchlab/axi2wb/sim"
)

// Grant identifies the initiator that owns the bus.
type Grant int

// NoGrant means that no initiator owns the bus.
const NoGrant Grant = -1

// HookPosGrant marks that the grant has changed. The item is the new Grant.
var HookPosGrant = &sim.HookPos{Name: "WB Grant"}

// An Arbiter shares one target among several initiators. The grant is
// registered: it only changes when no initiator owns the bus or when the
// owner drops CYC, and the new owner sees the bus in the next tick. While an
// initiator owns the bus, its request goes to the target and only it sees the
// target's response.
type Arbiter struct {
	*sim.ComponentBase

	policy     arbitration.Arbiter
	numInputs  int
	grant      Grant
	grantCount []uint64
}

// NewArbiter creates an arbiter for the given number of initiators. If
// policy is nil, a round-robin policy is used.
func NewArbiter(
	name string,
	numInputs int,
	policy arbitration.Arbiter,
) *Arbiter {
	if numInputs <= 0 {
		log.Panicf("arbiter %s: needs at least one initiator", name)
	}

	if policy == nil {
		policy = arbitration.NewRoundRobinArbiter()
	}

	return &Arbiter{
		ComponentBase: sim.NewComponentBase(name),
		policy:        policy,
		numInputs:     numInputs,
		grant:         NoGrant,
		grantCount:    make([]uint64, numInputs),
	}
}

// Grant returns the current owner of the bus.
func (a *Arbiter) Grant() Grant {
	return a.grant
}

// GrantCount returns how many times each initiator has been granted the bus.
func (a *Arbiter) GrantCount() []uint64 {
	return a.grantCount
}

// Bus returns the request that reaches the target.
func (a *Arbiter) Bus(reqs []Request) Request {
	a.mustMatchInputs(reqs)

	if a.grant == NoGrant {
		return Request{}
	}

	return reqs[a.grant]
}

// ResponseFor returns the part of the target response that initiator i sees.
func (a *Arbiter) ResponseFor(i int, rsp Response) Response {
	if Grant(i) != a.grant {
		return Response{}
	}

	return rsp
}

// Step registers the grant for the next tick.
func (a *Arbiter) Step(reqs []Request) bool {
	a.mustMatchInputs(reqs)

	if a.grant != NoGrant && reqs[a.grant].Cyc {
		return false
	}

	requesting := make([]bool, a.numInputs)
	for i, r := range reqs {
		requesting[i] = r.Cyc
	}

	next := Grant(a.policy.Arbitrate(requesting))
	if next == a.grant {
		return false
	}

	a.grant = next
	if next != NoGrant {
		a.grantCount[next]++
	}

	a.InvokeHook(sim.HookCtx{
		Domain: a,
		Pos:    HookPosGrant,
		Item:   next,
	})

	return true
}

func (a *Arbiter) mustMatchInputs(reqs []Request) {
	if len(reqs) != a.numInputs {
		log.Panicf("arbiter %s: expected %d requests, got %d",
			a.Name(), a.numInputs, len(reqs))
	}
}
