package soc

import (
	"fmt"

	"github.com/sarchlab/axi2wb/bridge"
	"github.com/sarchlab/axi2wb/sim"
)

// Spec holds immutable configuration values for the system.
type Spec struct {
	Freq   sim.Freq
	Policy bridge.Policy

	// MemoryBase and MemorySize place the SRAM on the downstream bus. The
	// size must be a power of two and the base aligned to it.
	MemoryBase       uint32
	MemorySize       uint64
	MemoryWaitStates int

	CSRBase       uint32
	CSRWaitStates int
}

// Validate checks the windows and sizes. Overlapping windows are caught
// when the system is built.
func (s Spec) Validate() error {
	if s.Freq <= 0 {
		return fmt.Errorf("freq must be > 0")
	}

	if s.MemorySize < 4 || s.MemorySize&(s.MemorySize-1) != 0 {
		return fmt.Errorf("memory size %d is not a power of two", s.MemorySize)
	}

	if s.MemoryWaitStates < 0 || s.CSRWaitStates < 0 {
		return fmt.Errorf("wait states must be >= 0")
	}

	return bridge.Spec{Policy: s.Policy}.Validate()
}

// Defaults returns a Spec with 64 KiB of memory at address 0 and the CSR bank
// at 0x4000_0000.
func Defaults() Spec {
	return Spec{
		Freq:       100 * sim.MHz,
		Policy:     bridge.PolicyRoundRobin,
		MemoryBase: 0,
		MemorySize: 64 * 1024,
		CSRBase:    0x4000_0000,
	}
}
