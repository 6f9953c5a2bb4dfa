package soc

import (
	"math/rand"

	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/csr"
)

// Transfer is one generated transaction. Exactly one of Read and Write is
// set.
type Transfer struct {
	Read    *axi.ReadReq
	Write   *axi.WriteReq
	Data    []axi.WriteData
	Illegal bool
}

// TrafficGenerator produces a reproducible mix of memory and register
// accesses, some of which the bridge has to reject.
type TrafficGenerator struct {
	rng          *rand.Rand
	spec         Spec
	illegalRatio float64
	nextID       uint16
}

// NewTrafficGenerator creates a generator. illegalRatio is the share of
// transfers that are bursts or misaligned.
func NewTrafficGenerator(
	seed int64,
	spec Spec,
	illegalRatio float64,
) *TrafficGenerator {
	return &TrafficGenerator{
		rng:          rand.New(rand.NewSource(seed)),
		spec:         spec,
		illegalRatio: illegalRatio,
	}
}

// Generate returns the next n transfers.
func (g *TrafficGenerator) Generate(n int) []Transfer {
	transfers := make([]Transfer, 0, n)
	for i := 0; i < n; i++ {
		transfers = append(transfers, g.next())
	}

	return transfers
}

func (g *TrafficGenerator) next() Transfer {
	id := g.nextID & axi.IDMask
	g.nextID++

	illegal := g.rng.Float64() < g.illegalRatio

	var (
		addr uint32
		size axi.Size
		n    uint8
	)

	if illegal {
		addr, size, n = g.illegalShape()
	} else {
		addr, size = g.legalShape()
	}

	if g.rng.Intn(2) == 0 {
		return Transfer{
			Read:    &axi.ReadReq{ID: id, Addr: addr, Size: size, Len: n},
			Illegal: illegal,
		}
	}

	data := make([]axi.WriteData, int(n)+1)
	for i := range data {
		data[i] = axi.WriteData{
			Data: g.rng.Uint32(),
			Strb: uint8(g.rng.Intn(axi.StrbMask + 1)),
		}
	}

	return Transfer{
		Write:   &axi.WriteReq{ID: id, Addr: addr, Size: size, Len: n},
		Data:    data,
		Illegal: illegal,
	}
}

// legalShape picks a naturally aligned access. One in eight goes to the
// GPIO_IN register, the rest to memory.
func (g *TrafficGenerator) legalShape() (uint32, axi.Size) {
	if g.rng.Intn(8) == 0 {
		return g.spec.CSRBase + csr.OffsetGPIOIn, axi.Size4
	}

	size := axi.Size(g.rng.Intn(3))
	addr := g.spec.MemoryBase +
		uint32(g.rng.Int63n(int64(g.spec.MemorySize)))
	addr &^= uint32(size.Bytes() - 1)

	return addr, size
}

func (g *TrafficGenerator) illegalShape() (uint32, axi.Size, uint8) {
	base := g.spec.MemoryBase + uint32(g.rng.Int63n(int64(g.spec.MemorySize)))

	switch g.rng.Intn(3) {
	case 0:
		return base &^ 3, axi.Size4, uint8(1 + g.rng.Intn(axi.LenMask))
	case 1:
		return base&^3 + 1 + uint32(g.rng.Intn(3)), axi.Size4, 0
	default:
		return base &^ 7, axi.Size8, 0
	}
}

// Issue queues every transfer on the system.
func (s *System) Issue(transfers []Transfer) {
	for _, t := range transfers {
		if t.Read != nil {
			s.IssueRead(*t.Read)
			continue
		}

		s.IssueWrite(*t.Write, t.Data...)
	}
}
