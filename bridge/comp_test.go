package bridge

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/tracing"
	"github.com/sarchlab/axi2wb/wishbone"
)

type bench struct {
	cycle    uint64
	manager  *axi.Manager
	bridge   *Comp
	target   *wishbone.RegisteredTarget
	accesses []wishbone.Request
	words    map[uint32]uint32
	failAdr  map[uint32]bool
}

func newBench(bridge *Comp, waitStates int) *bench {
	b := &bench{
		manager: axi.NewManager("Manager"),
		bridge:  bridge,
		words:   make(map[uint32]uint32),
		failAdr: make(map[uint32]bool),
	}

	b.target = wishbone.NewRegisteredTarget("Target",
		wishbone.DeviceFunc(b.access), waitStates)

	return b
}

func (b *bench) access(req wishbone.Request) (uint32, error) {
	b.accesses = append(b.accesses, req)

	if b.failAdr[req.Adr] {
		return 0, errors.New("target error")
	}

	if req.We {
		b.words[req.Adr] = req.DatW
		return 0, nil
	}

	return b.words[req.Adr], nil
}

func (b *bench) CurrentTime() sim.VTimeInSec {
	return sim.VTimeInSec(b.cycle)
}

func (b *bench) tick() {
	up := b.manager.Signals()
	sub := b.bridge.Upstream()
	bus := b.bridge.Downstream()
	rsp := b.target.Response()

	forRead := b.bridge.Arbiter().ResponseFor(ReadPath, rsp)
	forWrite := b.bridge.Arbiter().ResponseFor(WritePath, rsp)
	Expect(forRead.Done() && forWrite.Done()).To(BeFalse())

	b.manager.Step(sub)
	b.bridge.Step(up, rsp)
	b.target.Step(bus)

	b.cycle++
}

func (b *bench) run() {
	for i := 0; i < 10000; i++ {
		if b.manager.Idle() && b.bridge.Idle() {
			return
		}

		b.tick()
	}

	Fail("bench did not drain")
}

type grantRecorder struct {
	grants []wishbone.Grant
}

func (r *grantRecorder) Func(ctx sim.HookCtx) {
	if ctx.Pos != wishbone.HookPosGrant {
		return
	}

	if g := ctx.Item.(wishbone.Grant); g != wishbone.NoGrant {
		r.grants = append(r.grants, g)
	}
}

var _ = Describe("Bridge", func() {
	var (
		bridge *Comp
		b      *bench
	)

	BeforeEach(func() {
		bridge = MakeBuilder().Build("Bridge")
		b = newBench(bridge, 0)
	})

	It("should start idle", func() {
		Expect(bridge.Idle()).To(BeTrue())
		Expect(bridge.ReadState()).To(Equal("WAIT_REQUEST"))
		Expect(bridge.WriteState()).To(Equal("WAIT_ADDRESS"))
		Expect(bridge.Downstream()).To(Equal(wishbone.Request{}))
	})

	It("should panic on an unknown policy", func() {
		Expect(func() {
			MakeBuilder().WithPolicy("lottery").Build("Bridge")
		}).To(Panic())
	})

	It("should read a word", func() {
		b.words[0x40] = 0xdeadbeef
		txn := b.manager.IssueRead(axi.ReadReq{
			ID: 5, Addr: 0x100, Size: axi.Size4,
		})

		b.run()

		Expect(txn.Done).To(BeTrue())
		Expect(txn.Rsp).To(Equal(axi.ReadRsp{
			ID: 5, Data: 0xdeadbeef, Resp: axi.RespOkay, Last: true,
		}))
		Expect(b.accesses).To(Equal([]wishbone.Request{
			{Cyc: true, Stb: true, Adr: 0x40, Sel: 0xf},
		}))
	})

	It("should drain a misaligned write and answer with an error", func() {
		txn := b.manager.IssueWrite(axi.WriteReq{
			ID: 3, Addr: 0x101, Size: axi.Size4,
		})

		b.run()

		Expect(txn.Rsp).To(Equal(axi.WriteRsp{ID: 3, Resp: axi.RespSlvErr}))
		Expect(b.accesses).To(BeEmpty())
		Expect(bridge.Stats().DrainedBeats).To(Equal(uint64(1)))
		Expect(bridge.Stats().DownstreamWrites).To(BeZero())
		Expect(bridge.Stats().Grants).To(Equal([]uint64{0, 0}))
	})

	It("should drain every beat of a rejected burst", func() {
		burst := b.manager.IssueWrite(
			axi.WriteReq{ID: 1, Addr: 0x0, Size: axi.Size4, Len: 3},
			axi.WriteData{Data: 1, Strb: 0xf},
			axi.WriteData{Data: 2, Strb: 0xf},
			axi.WriteData{Data: 3, Strb: 0xf},
			axi.WriteData{Data: 4, Strb: 0xf},
		)
		next := b.manager.IssueWrite(
			axi.WriteReq{ID: 2, Addr: 0x8, Size: axi.Size4},
			axi.WriteData{Data: 0xab, Strb: 0xf},
		)

		b.run()

		Expect(burst.Rsp.Resp).To(Equal(axi.RespSlvErr))
		Expect(next.Rsp).To(Equal(axi.WriteRsp{ID: 2, Resp: axi.RespOkay}))
		Expect(bridge.Stats().DrainedBeats).To(Equal(uint64(4)))
		Expect(b.words).To(Equal(map[uint32]uint32{0x2: 0xab}))
	})

	It("should reject a read burst without touching the bus", func() {
		txn := b.manager.IssueRead(axi.ReadReq{
			ID: 9, Addr: 0x100, Size: axi.Size4, Len: 1,
		})

		b.run()

		Expect(txn.Rsp).To(Equal(axi.ReadRsp{
			ID: 9, Resp: axi.RespSlvErr, Last: true,
		}))
		Expect(b.accesses).To(BeEmpty())
		Expect(bridge.Stats().ReadsRejected).To(Equal(uint64(1)))
	})

	It("should select byte lanes for narrow writes", func() {
		b.manager.IssueWrite(
			axi.WriteReq{ID: 1, Addr: 0x102, Size: axi.Size2},
			axi.WriteData{Data: 0xbeef0000, Strb: 0b1100},
		)
		b.manager.IssueWrite(
			axi.WriteReq{ID: 2, Addr: 0x203, Size: axi.Size1},
		)

		b.run()

		Expect(b.accesses).To(HaveLen(2))
		Expect(b.accesses[0].Adr).To(Equal(uint32(0x40)))
		Expect(b.accesses[0].Sel).To(Equal(uint8(0b1100)))
		Expect(b.accesses[1].Adr).To(Equal(uint32(0x80)))
		Expect(b.accesses[1].Sel).To(Equal(uint8(0b1000)))
	})

	It("should pass downstream errors up", func() {
		b.failAdr[0x10] = true
		read := b.manager.IssueRead(axi.ReadReq{
			ID: 1, Addr: 0x40, Size: axi.Size4,
		})
		write := b.manager.IssueWrite(axi.WriteReq{
			ID: 2, Addr: 0x40, Size: axi.Size4,
		})

		b.run()

		Expect(read.Rsp.Resp).To(Equal(axi.RespSlvErr))
		Expect(write.Rsp.Resp).To(Equal(axi.RespSlvErr))
		Expect(b.accesses).To(HaveLen(2))

		stats := bridge.Stats()
		Expect(stats.DownstreamErrors).To(Equal(uint64(2)))
		Expect(stats.ReadsErr).To(Equal(uint64(1)))
		Expect(stats.WritesErr).To(Equal(uint64(1)))
	})

	It("should wait for slow targets", func() {
		b = newBench(bridge, 3)
		b.words[0x1] = 42
		txn := b.manager.IssueRead(axi.ReadReq{
			ID: 1, Addr: 0x4, Size: axi.Size4,
		})

		b.run()

		Expect(txn.Rsp.Data).To(Equal(uint32(42)))
		Expect(b.accesses).To(HaveLen(1))
	})

	It("should hold the response while the manager is not ready", func() {
		b.manager.SetResponseReady(false, false)
		read := b.manager.IssueRead(axi.ReadReq{ID: 1, Size: axi.Size4})
		write := b.manager.IssueWrite(axi.WriteReq{ID: 2, Size: axi.Size4})

		for i := 0; i < 20; i++ {
			b.tick()
		}

		Expect(bridge.ReadState()).To(Equal("RESPOND"))
		Expect(bridge.WriteState()).To(Equal("RESPOND"))
		Expect(read.Done).To(BeFalse())
		Expect(write.Done).To(BeFalse())

		b.manager.SetResponseReady(true, true)
		b.run()

		Expect(read.Done).To(BeTrue())
		Expect(write.Done).To(BeTrue())
	})

	It("should keep ids under interleaved traffic", func() {
		reads := []*axi.ReadTxn{}
		writes := []*axi.WriteTxn{}

		for i := 0; i < 32; i++ {
			size := axi.Size(i % 3)
			addr := uint32(i*4 + i%4)
			length := uint8(0)
			if i%5 == 0 {
				length = 1
			}

			reads = append(reads, b.manager.IssueRead(axi.ReadReq{
				ID: uint16(i), Addr: addr, Size: size, Len: length,
			}))
			writes = append(writes, b.manager.IssueWrite(axi.WriteReq{
				ID: uint16(0x100 + i), Addr: addr, Size: size, Len: length,
			}))
		}

		b.run()

		for _, txn := range reads {
			_, legal := decode(txn.Req.Addr, txn.Req.Size, txn.Req.Len)

			Expect(txn.Done).To(BeTrue())
			Expect(txn.Rsp.ID).To(Equal(txn.Req.ID))
			Expect(txn.Rsp.Resp.IsError()).To(Equal(!legal))
		}

		for _, txn := range writes {
			_, legal := decode(txn.Req.Addr, txn.Req.Size, txn.Req.Len)

			Expect(txn.Done).To(BeTrue())
			Expect(txn.Rsp.ID).To(Equal(txn.Req.ID))
			Expect(txn.Rsp.Resp.IsError()).To(Equal(!legal))
		}

		stats := bridge.Stats()
		Expect(stats.ReadsOK + stats.ReadsErr).To(Equal(uint64(32)))
		Expect(stats.WritesOK + stats.WritesErr).To(Equal(uint64(32)))
		Expect(stats.DownstreamReads).To(Equal(stats.ReadsOK))
		Expect(stats.DownstreamWrites).To(Equal(stats.WritesOK))
		Expect(uint64(len(b.accesses))).To(Equal(
			stats.DownstreamReads + stats.DownstreamWrites))
	})

	It("should alternate the bus between continuous readers and writers", func() {
		recorder := &grantRecorder{}
		bridge.Arbiter().AcceptHook(recorder)

		for i := 0; i < 10; i++ {
			b.manager.IssueRead(axi.ReadReq{
				ID: uint16(i), Addr: uint32(i * 4), Size: axi.Size4,
			})
			b.manager.IssueWrite(axi.WriteReq{
				ID: uint16(i), Addr: uint32(i * 4), Size: axi.Size4,
			})
		}

		b.run()

		Expect(recorder.grants).To(HaveLen(20))
		for i := 1; i < len(recorder.grants); i++ {
			Expect(recorder.grants[i]).NotTo(Equal(recorder.grants[i-1]))
		}
		Expect(bridge.Stats().Grants).To(Equal([]uint64{10, 10}))
	})

	It("should give the bus to a writer behind a stream of reads", func() {
		recorder := &grantRecorder{}
		bridge.Arbiter().AcceptHook(recorder)

		for i := 0; i < 10; i++ {
			b.manager.IssueRead(axi.ReadReq{ID: 1, Size: axi.Size4})
		}
		write := b.manager.IssueWrite(axi.WriteReq{ID: 2, Size: axi.Size4})

		for !write.Done {
			b.tick()
		}

		Expect(recorder.grants).To(ContainElement(wishbone.Grant(WritePath)))
		Expect(len(b.manager.ReadsDone())).To(BeNumerically("<", 10))
	})

	Context("with read priority", func() {
		BeforeEach(func() {
			bridge = MakeBuilder().
				WithPolicy(PolicyReadPriority).
				Build("Bridge")
			b = newBench(bridge, 0)
		})

		It("should still complete every transaction", func() {
			for i := 0; i < 4; i++ {
				b.manager.IssueRead(axi.ReadReq{ID: 1, Size: axi.Size4})
				b.manager.IssueWrite(axi.WriteReq{ID: 2, Size: axi.Size4})
			}

			b.run()

			Expect(b.manager.ReadsDone()).To(HaveLen(4))
			Expect(b.manager.WritesDone()).To(HaveLen(4))
		})
	})

	Context("when traced", func() {
		It("should report upstream and downstream tasks", func() {
			upstream := tracing.NewAverageTimeTracer(b,
				tracing.KindFilter("req_in"))
			downstream := tracing.NewAverageTimeTracer(b,
				tracing.KindFilter("req_out"))
			tracing.CollectTrace(bridge, upstream)
			tracing.CollectTrace(bridge, downstream)

			b.manager.IssueRead(axi.ReadReq{ID: 1, Size: axi.Size4})
			b.manager.IssueWrite(axi.WriteReq{ID: 2, Size: axi.Size4})
			b.manager.IssueWrite(axi.WriteReq{
				ID: 3, Addr: 0x2, Size: axi.Size4,
			})

			b.run()

			Expect(upstream.TotalCount()).To(Equal(uint64(3)))
			Expect(downstream.TotalCount()).To(Equal(uint64(2)))

			_, reads := downstream.AverageTimeOf("wb_read")
			_, writes := downstream.AverageTimeOf("wb_write")
			Expect(reads).To(Equal(uint64(1)))
			Expect(writes).To(Equal(uint64(1)))
			Expect(downstream.AverageTime()).To(BeNumerically(">", 0))
		})

		It("should log transactions", func() {
			buf := new(bytes.Buffer)
			bridge.AcceptHook(NewTransactionLogger(log.New(buf, "", 0), b))

			b.manager.IssueRead(axi.ReadReq{ID: 5, Addr: 0x100, Size: axi.Size4})
			b.manager.IssueWrite(axi.WriteReq{ID: 3, Addr: 0x101, Size: axi.Size4})

			b.run()

			Expect(buf.String()).To(ContainSubstring(
				"Bridge, read accepted, id=5, addr=0x00000100"))
			Expect(buf.String()).To(ContainSubstring(
				"Bridge, write rejected, id=3, addr=0x00000101"))
			Expect(buf.String()).To(ContainSubstring(
				"Bridge, write done, id=3, resp=SLVERR"))
			Expect(buf.String()).To(ContainSubstring(
				"Bridge, read done, id=5, resp=OKAY"))
		})
	})
})
