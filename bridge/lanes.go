package bridge

import (
	"github.com/sarchlab/axi2wb/axi"
	"github.com/sarchlab/axi2wb/wishbone"
)

// target is where a legal upstream request lands on the downstream bus.
type target struct {
	adr uint32
	sel uint8
}

// decode derives the word address and the byte lanes of a request and tells
// if the bridge can serve it. Only single-beat transfers that are naturally
// aligned and no wider than the data bus are served.
func decode(addr uint32, size axi.Size, length uint8) (target, bool) {
	t := target{adr: (addr >> 2) & wishbone.AdrMask}
	offset := addr & 0b11
	legal := length == 0

	switch size {
	case axi.Size1:
		t.sel = 0b0001 << offset
	case axi.Size2:
		t.sel = 0b0011 << offset
		legal = legal && addr&0b1 == 0
	case axi.Size4:
		t.sel = 0b1111
		legal = legal && offset == 0
	default:
		legal = false
	}

	t.sel &= wishbone.SelMask

	return t, legal
}
