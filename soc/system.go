// Package soc puts an AXI manager, the bridge, and the downstream bus with
// its memory and CSR targets together into one clocked system.
package soc

import (
	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/bridge"
	"github.com/sarchlab/axi2wb/csr"
	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/wishbone"
)

// System is a ticking component that clocks every part of the system in
// lockstep. It stops ticking when nothing changes and is woken by new traffic.
type System struct {
	*sim.TickingComponent

	Spec Spec

	manager    *axi.Manager
	bridge     *bridge.Comp
	decoder    *wishbone.Decoder
	memory     *wishbone.Memory
	memoryPort *wishbone.RegisteredTarget
	csr        *csr.Bank
	csrPort    *wishbone.RegisteredTarget

	ticks uint64
}

// Manager returns the upstream initiator.
func (s *System) Manager() *axi.Manager {
	return s.manager
}

// Bridge returns the bridge.
func (s *System) Bridge() *bridge.Comp {
	return s.bridge
}

// Decoder returns the downstream address decoder.
func (s *System) Decoder() *wishbone.Decoder {
	return s.decoder
}

// Memory returns the memory device.
func (s *System) Memory() *wishbone.Memory {
	return s.memory
}

// CSR returns the register bank.
func (s *System) CSR() *csr.Bank {
	return s.csr
}

// Ticks returns how many ticks the system has been clocked.
func (s *System) Ticks() uint64 {
	return s.ticks
}

// Components returns the system and all its parts.
func (s *System) Components() []sim.Component {
	return []sim.Component{
		s,
		s.manager,
		s.bridge,
		s.bridge.Arbiter(),
		s.decoder,
		s.memoryPort,
		s.csr,
		s.csrPort,
	}
}

// IssueRead queues a read on the manager and wakes the system.
func (s *System) IssueRead(req axi.ReadReq) *axi.ReadTxn {
	txn := s.manager.IssueRead(req)
	s.TickLater()

	return txn
}

// IssueWrite queues a write on the manager and wakes the system.
func (s *System) IssueWrite(
	req axi.WriteReq,
	data ...axi.WriteData,
) *axi.WriteTxn {
	txn := s.manager.IssueWrite(req, data...)
	s.TickLater()

	return txn
}

// SetResponseReady controls RREADY and BREADY of the manager and wakes the
// system.
func (s *System) SetResponseReady(rReady, bReady bool) {
	s.manager.SetResponseReady(rReady, bReady)
	s.TickLater()
}

// Run runs the engine until no more events are scheduled.
func (s *System) Run() error {
	return s.Engine.Run()
}

// Idle tells if every issued transaction has completed.
func (s *System) Idle() bool {
	return s.manager.Idle() && s.bridge.Idle()
}

// Tick collects what every part drives and then steps every part with what
// its peers drive.
func (s *System) Tick() bool {
	s.ticks++

	mgr := s.manager.Signals()
	up := s.bridge.Upstream()
	down := s.bridge.Downstream()
	rsp := s.decoder.Response()

	progress := false
	progress = s.manager.Step(up) || progress
	progress = s.bridge.Step(mgr, rsp) || progress
	progress = s.decoder.Step(down) || progress

	return progress
}
