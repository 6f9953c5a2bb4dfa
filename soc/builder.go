package soc

import (
	"log"

	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/bridge"
	"github.com/sarchlab/axi2wb/csr"
	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/wishbone"
)

// Builder can build systems.
type Builder struct {
	engine     sim.Engine
	simulation *sim.Simulation
	spec       Spec
}

// MakeBuilder returns a Builder with the default spec.
func MakeBuilder() Builder {
	return Builder{spec: Defaults()}
}

// WithEngine sets the engine. A serial engine is created if none is given.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithSimulation makes the builder register every component with the
// simulation.
func (b Builder) WithSimulation(simulation *sim.Simulation) Builder {
	b.simulation = simulation
	return b
}

// WithSpec replaces the whole spec.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithFreq sets the clock frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.spec.Freq = freq
	return b
}

// WithPolicy sets the arbitration policy of the bridge.
func (b Builder) WithPolicy(policy bridge.Policy) Builder {
	b.spec.Policy = policy
	return b
}

// WithMemoryWaitStates sets the wait states of the memory target.
func (b Builder) WithMemoryWaitStates(n int) Builder {
	b.spec.MemoryWaitStates = n
	return b
}

// Build creates a system with an idle bus.
func (b Builder) Build(name string) *System {
	if err := b.spec.Validate(); err != nil {
		log.Panicf("system %s: %v", name, err)
	}

	engine := b.engine
	if engine == nil {
		engine = sim.NewSerialEngine()
	}

	s := &System{Spec: b.spec}
	s.TickingComponent = sim.NewTickingComponent(name, engine, b.spec.Freq, s)

	s.manager = axi.NewManager(name + ".Manager")
	s.bridge = bridge.MakeBuilder().
		WithPolicy(b.spec.Policy).
		Build(name + ".Bridge")
	s.decoder = wishbone.NewDecoder(name + ".Decoder")

	s.memory = wishbone.NewMemory(b.spec.MemorySize)
	s.memoryPort = wishbone.NewRegisteredTarget(name+".Memory",
		s.memory, b.spec.MemoryWaitStates)

	s.csr = csr.NewBank(name + ".CSR")
	s.csrPort = wishbone.NewRegisteredTarget(name+".CSR.Port",
		s.csr, b.spec.CSRWaitStates)

	b.mustMap(s.decoder, "memory", b.spec.MemoryBase, b.spec.MemorySize,
		s.memoryPort)
	b.mustMap(s.decoder, "csr", b.spec.CSRBase, csr.Size, s.csrPort)

	if b.simulation != nil {
		b.register(s)
	}

	return s
}

func (b Builder) mustMap(
	d *wishbone.Decoder,
	name string,
	base uint32,
	size uint64,
	t wishbone.Target,
) {
	if err := d.Map(name, base, size, t); err != nil {
		log.Panicf("system: cannot map %s: %v", name, err)
	}
}

func (b Builder) register(s *System) {
	for _, c := range s.Components() {
		b.simulation.RegisterComponent(c)
	}
}
