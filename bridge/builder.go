package bridge

import (
	"log"

	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/wishbone"
)

// Builder can build bridges.
type Builder struct {
	spec Spec
}

// MakeBuilder returns a Builder with the default spec.
func MakeBuilder() Builder {
	return Builder{spec: Defaults()}
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithPolicy sets the arbitration policy.
func (b Builder) WithPolicy(policy Policy) Builder {
	b.spec.Policy = policy
	return b
}

// Build creates a bridge with both paths idle and no one owning the bus.
func (b Builder) Build(name string) *Comp {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("bridge %s: %v", name, err)
	}

	c := &Comp{
		ComponentBase: sim.NewComponentBase(name),
		Spec:          b.spec,
		reader:        readWaitRequest{},
		writer:        writeWaitAddress{},
	}

	c.arbiter = wishbone.NewArbiter(name+".Arbiter", numPaths, b.spec.arbiter())

	return c
}
