package axi

import (
	"log"

	"github.com/sarchlab/axi2wb/sim"
)

// ReadTxn is one read issued by a Manager.
type ReadTxn struct {
	Req  ReadReq
	Rsp  ReadRsp
	Done bool
}

// WriteTxn is one write issued by a Manager. Data holds the beats sent on the
// W channel; when left empty the manager sends Len+1 zero beats with all
// strobes set.
type WriteTxn struct {
	Req  WriteReq
	Data []WriteData
	Rsp  WriteRsp
	Done bool
}

// A Manager is an upstream AXI initiator. It drives the address and write
// data channels from its queues, independently of each other, and accepts
// responses whenever its ready flags are set. Everything it drives is a
// function of its state, so a tick is split into Signals and Step.
type Manager struct {
	*sim.ComponentBase

	readQueue    []*ReadTxn
	readInflight []*ReadTxn
	readsDone    []*ReadTxn

	writeAddrQueue []*WriteTxn
	writeDataQueue []*WriteTxn
	beatIndex      int
	writeInflight  []*WriteTxn
	writesDone     []*WriteTxn

	rReady bool
	bReady bool
}

// NewManager creates a manager that is always ready for responses.
func NewManager(name string) *Manager {
	return &Manager{
		ComponentBase: sim.NewComponentBase(name),
		rReady:        true,
		bReady:        true,
	}
}

// SetResponseReady controls RREADY and BREADY.
func (m *Manager) SetResponseReady(rReady, bReady bool) {
	m.rReady = rReady
	m.bReady = bReady
}

// IssueRead queues a read.
func (m *Manager) IssueRead(req ReadReq) *ReadTxn {
	req.ID &= IDMask
	req.Len &= LenMask

	txn := &ReadTxn{Req: req}
	m.readQueue = append(m.readQueue, txn)

	return txn
}

// IssueWrite queues a write. See WriteTxn for how data is filled in.
func (m *Manager) IssueWrite(req WriteReq, data ...WriteData) *WriteTxn {
	req.ID &= IDMask
	req.Len &= LenMask

	if len(data) == 0 {
		data = make([]WriteData, int(req.Len)+1)
		for i := range data {
			data[i].Strb = StrbMask
		}
	}

	beats := make([]WriteData, len(data))
	copy(beats, data)
	for i := range beats {
		beats[i].Strb &= StrbMask
		beats[i].Last = i == len(beats)-1
	}

	txn := &WriteTxn{Req: req, Data: beats}
	m.writeAddrQueue = append(m.writeAddrQueue, txn)
	m.writeDataQueue = append(m.writeDataQueue, txn)

	return txn
}

// Signals returns what the manager drives in the current tick.
func (m *Manager) Signals() ManagerSignals {
	s := ManagerSignals{
		RReady: m.rReady,
		BReady: m.bReady,
	}

	if len(m.readQueue) > 0 {
		s.AR = Offer(m.readQueue[0].Req)
	}

	if len(m.writeAddrQueue) > 0 {
		s.AW = Offer(m.writeAddrQueue[0].Req)
	}

	if len(m.writeDataQueue) > 0 {
		s.W = Offer(m.writeDataQueue[0].Data[m.beatIndex])
	}

	return s
}

// Step samples the subordinate's signals and commits the next state. It
// returns true if any transfer happened.
func (m *Manager) Step(in SubordinateSignals) bool {
	out := m.Signals()
	progress := false

	if out.AR.Fire(in.ARReady) {
		m.readInflight = append(m.readInflight, m.readQueue[0])
		m.readQueue = m.readQueue[1:]
		progress = true
	}

	if in.R.Fire(out.RReady) {
		m.completeRead(in.R.Payload)
		progress = true
	}

	if out.AW.Fire(in.AWReady) {
		m.writeInflight = append(m.writeInflight, m.writeAddrQueue[0])
		m.writeAddrQueue = m.writeAddrQueue[1:]
		progress = true
	}

	if out.W.Fire(in.WReady) {
		m.beatIndex++
		if m.beatIndex == len(m.writeDataQueue[0].Data) {
			m.writeDataQueue = m.writeDataQueue[1:]
			m.beatIndex = 0
		}
		progress = true
	}

	if in.B.Fire(out.BReady) {
		m.completeWrite(in.B.Payload)
		progress = true
	}

	return progress
}

func (m *Manager) completeRead(rsp ReadRsp) {
	for i, txn := range m.readInflight {
		if txn.Req.ID != rsp.ID {
			continue
		}

		txn.Rsp = rsp
		txn.Done = true
		m.readsDone = append(m.readsDone, txn)
		m.readInflight = append(m.readInflight[:i], m.readInflight[i+1:]...)

		return
	}

	log.Panicf("%s: read response with unknown id %d", m.Name(), rsp.ID)
}

func (m *Manager) completeWrite(rsp WriteRsp) {
	for i, txn := range m.writeInflight {
		if txn.Req.ID != rsp.ID {
			continue
		}

		txn.Rsp = rsp
		txn.Done = true
		m.writesDone = append(m.writesDone, txn)
		m.writeInflight = append(m.writeInflight[:i], m.writeInflight[i+1:]...)

		return
	}

	log.Panicf("%s: write response with unknown id %d", m.Name(), rsp.ID)
}

// Idle tells if every issued transaction has completed.
func (m *Manager) Idle() bool {
	return len(m.readQueue) == 0 &&
		len(m.readInflight) == 0 &&
		len(m.writeAddrQueue) == 0 &&
		len(m.writeDataQueue) == 0 &&
		len(m.writeInflight) == 0
}

// ReadsDone returns the completed reads in completion order.
func (m *Manager) ReadsDone() []*ReadTxn {
	return m.readsDone
}

// WritesDone returns the completed writes in completion order.
func (m *Manager) WritesDone() []*WriteTxn {
	return m.writesDone
}
