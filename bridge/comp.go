// Package bridge translates single-beat AXI3 transactions into classic
// Wishbone transfers.
//
// The read path and the write path are independent state machines. They
// share the downstream bus through an arbiter that holds the grant until the
// owner drops CYC. Requests the bridge cannot serve, bursts and misaligned
// or over-wide transfers, are answered with SLVERR without touching the bus;
// the beats of a rejected write are drained first.
package bridge

import (
	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/tracing"
	"github.com/sarchlab/axi2wb/wishbone"
)

// The arbiter ports of the two paths.
const (
	ReadPath = iota
	WritePath
	numPaths
)

// Hook positions for transactions seen on the upstream port. The item is a
// Transaction.
var (
	HookPosTransactionStart = &sim.HookPos{Name: "Bridge Transaction Start"}
	HookPosTransactionEnd   = &sim.HookPos{Name: "Bridge Transaction End"}
)

// Transaction describes an upstream transaction when it is accepted and when
// its response is taken.
type Transaction struct {
	Write    bool
	ID       uint16
	Addr     uint32
	Rejected bool
	Resp     axi.Resp
}

// Stats counts what the bridge has done.
type Stats struct {
	ReadsOK          uint64
	ReadsErr         uint64
	WritesOK         uint64
	WritesErr        uint64
	ReadsRejected    uint64
	WritesRejected   uint64
	DrainedBeats     uint64
	DownstreamReads  uint64
	DownstreamWrites uint64
	DownstreamErrors uint64
	Grants           []uint64
}

type pathTasks struct {
	upstream   string
	downstream string
}

// Comp is the bridge. Upstream and Downstream return what the bridge drives
// in the current tick; Step samples what the peers drive and commits.
type Comp struct {
	*sim.ComponentBase

	Spec Spec

	reader  readerState
	writer  writerState
	arbiter *wishbone.Arbiter

	tasks [numPaths]pathTasks
	stats Stats
}

// Arbiter returns the arbiter in front of the downstream bus.
func (c *Comp) Arbiter() *wishbone.Arbiter {
	return c.arbiter
}

// ReadState returns the name of the state of the read path.
func (c *Comp) ReadState() string {
	return c.reader.String()
}

// WriteState returns the name of the state of the write path.
func (c *Comp) WriteState() string {
	return c.writer.String()
}

// Stats returns a snapshot of the counters.
func (c *Comp) Stats() Stats {
	s := c.stats
	s.Grants = append([]uint64(nil), c.arbiter.GrantCount()...)

	return s
}

// Idle tells if both paths wait for a new request.
func (c *Comp) Idle() bool {
	_, readIdle := c.reader.(readWaitRequest)
	_, writeIdle := c.writer.(writeWaitAddress)

	return readIdle && writeIdle
}

// Upstream returns the signals the bridge drives towards the AXI manager.
func (c *Comp) Upstream() axi.SubordinateSignals {
	r := readerDrive(c.reader)
	w := writerDrive(c.writer)

	return axi.SubordinateSignals{
		ARReady: r.arReady,
		R:       r.r,
		AWReady: w.awReady,
		WReady:  w.wReady,
		B:       w.b,
	}
}

// Downstream returns the request that the bus owner drives.
func (c *Comp) Downstream() wishbone.Request {
	return c.arbiter.Bus(c.pathRequests())
}

func (c *Comp) pathRequests() []wishbone.Request {
	return []wishbone.Request{
		readerDrive(c.reader).bus,
		writerDrive(c.writer).bus,
	}
}

// Step samples the manager and the downstream response and moves both paths
// and the arbiter to their next state. It returns true if anything changed.
func (c *Comp) Step(up axi.ManagerSignals, down wishbone.Response) bool {
	reqs := c.pathRequests()

	nextReader, readEvent := readerStep(c.reader, readerInputs{
		ar:     up.AR,
		rReady: up.RReady,
		bus:    c.arbiter.ResponseFor(ReadPath, down),
	})

	nextWriter, writeEvent := writerStep(c.writer, writerInputs{
		aw:     up.AW,
		w:      up.W,
		bReady: up.BReady,
		bus:    c.arbiter.ResponseFor(WritePath, down),
	})

	granted := c.arbiter.Step(reqs)

	c.reader = nextReader
	c.writer = nextWriter

	c.handleEvent(ReadPath, readEvent)
	c.handleEvent(WritePath, writeEvent)

	return granted ||
		readEvent.kind != eventNone ||
		writeEvent.kind != eventNone
}

func (c *Comp) handleEvent(path int, ev event) {
	write := path == WritePath

	switch ev.kind {
	case eventNone:
		return
	case eventAccepted, eventRejected:
		c.startUpstreamTask(path, ev)
	case eventBeatDrained:
		c.stats.DrainedBeats++
		tracing.AddTaskStep(c.tasks[path].upstream, c, "drain")
	case eventBusDone:
		if ev.resp.IsError() {
			c.stats.DownstreamErrors++
		}

		tracing.EndTask(c.tasks[path].downstream, c)
		c.tasks[path].downstream = ""
	case eventResponded:
		c.countResponse(write, ev.resp)
		c.InvokeHook(sim.HookCtx{
			Domain: c,
			Pos:    HookPosTransactionEnd,
			Item:   Transaction{Write: write, ID: ev.id, Resp: ev.resp},
		})

		tracing.EndTask(c.tasks[path].upstream, c)
		c.tasks[path].upstream = ""
	}

	if ev.bus.Cyc {
		c.startDownstreamTask(path, ev)
	}
}

func (c *Comp) startUpstreamTask(path int, ev event) {
	write := path == WritePath
	rejected := ev.kind == eventRejected

	if rejected && write {
		c.stats.WritesRejected++
	} else if rejected {
		c.stats.ReadsRejected++
	}

	what := "read"
	if write {
		what = "write"
	}

	txn := Transaction{
		Write:    write,
		ID:       ev.id,
		Addr:     ev.addr,
		Rejected: rejected,
	}

	c.tasks[path].upstream = sim.GetIDGenerator().Generate()
	tracing.StartTask(c.tasks[path].upstream, "", c, "req_in", what, txn)

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosTransactionStart,
		Item:   txn,
	})
}

func (c *Comp) startDownstreamTask(path int, ev event) {
	what := "wb_read"
	if ev.bus.We {
		what = "wb_write"
		c.stats.DownstreamWrites++
	} else {
		c.stats.DownstreamReads++
	}

	c.tasks[path].downstream = sim.GetIDGenerator().Generate()
	tracing.StartTask(c.tasks[path].downstream, c.tasks[path].upstream,
		c, "req_out", what, ev.bus)
}

func (c *Comp) countResponse(write bool, resp axi.Resp) {
	switch {
	case write && resp.IsError():
		c.stats.WritesErr++
	case write:
		c.stats.WritesOK++
	case resp.IsError():
		c.stats.ReadsErr++
	default:
		c.stats.ReadsOK++
	}
}
