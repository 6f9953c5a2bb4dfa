// Package csr provides the control and status register bank that the host
// reaches through the bridge. It holds the clocking and reset controls of the
// soft core, the debug chain controls, the GPIO words, and two mailbox FIFOs
// between the host and the core.
package csr

import (
	"errors"
	"fmt"

	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/wishbone"
)

// Register offsets in bytes.
const (
	OffsetClocking           = 0x00
	OffsetResetAddr          = 0x04
	OffsetDebug              = 0x08
	OffsetGPIOIn             = 0x0c
	OffsetGPIOOut            = 0x10
	OffsetGPIOOE             = 0x14
	OffsetMailboxReadStatus  = 0x18
	OffsetMailboxWriteStatus = 0x1c
	OffsetMailboxRead        = 0x20
	OffsetMailboxWrite       = 0x24
)

// Size is the size of the address window of the bank in bytes.
const Size = 0x40

// MailboxDepth is the number of words each mailbox FIFO can hold.
const MailboxDepth = 16

// Bits of the CLOCKING register.
const (
	ClockingReset       = 1 << 0
	ClockingClockEnable = 1 << 1
)

// Bits of the DEBUG register.
const (
	DebugSrcMuxMask = 0b11
	DebugDstMux     = 1 << 2
	DebugTCK        = 1 << 3
	DebugTMS        = 1 << 4
	DebugTDI        = 1 << 5
	DebugTDO        = 1 << 6

	debugWritable = DebugSrcMuxMask | DebugDstMux | DebugTCK | DebugTMS |
		DebugTDI
)

// ErrNoRegister is returned for accesses to offsets that hold no register.
var ErrNoRegister = errors.New("no register at offset")

// Bank is the register bank. It is a wishbone.Device; put it behind a
// wishbone.RegisteredTarget to mount it on a bus.
type Bank struct {
	*sim.ComponentBase

	clocking  uint32
	resetAddr uint32
	debug     uint32
	tdo       bool
	gpioIn    uint32
	gpioOut   uint32
	gpioOE    uint32

	toHost   sim.Buffer
	fromHost sim.Buffer
}

// NewBank creates a bank with the core held in reset.
func NewBank(name string) *Bank {
	return &Bank{
		ComponentBase: sim.NewComponentBase(name),
		clocking:      ClockingReset,
		toHost:        sim.NewBuffer(name+".ToHost", MailboxDepth),
		fromHost:      sim.NewBuffer(name+".FromHost", MailboxDepth),
	}
}

// Access serves one bus transfer. The address is a word address relative to
// the base of the bank.
func (b *Bank) Access(req wishbone.Request) (uint32, error) {
	offset := req.ByteAddr()

	if req.We {
		return 0, b.write(offset, req.Sel, req.DatW)
	}

	return b.read(offset)
}

func (b *Bank) read(offset uint32) (uint32, error) {
	switch offset {
	case OffsetClocking:
		return b.clocking, nil
	case OffsetResetAddr:
		return b.resetAddr, nil
	case OffsetDebug:
		value := b.debug
		if b.tdo {
			value |= DebugTDO
		}

		return value, nil
	case OffsetGPIOIn:
		return b.gpioIn, nil
	case OffsetGPIOOut:
		return b.gpioOut, nil
	case OffsetGPIOOE:
		return b.gpioOE, nil
	case OffsetMailboxReadStatus:
		return status(b.toHost.Size() > 0, b.toHost.Size()), nil
	case OffsetMailboxWriteStatus:
		return status(b.fromHost.CanPush(), b.fromHost.Size()), nil
	case OffsetMailboxRead:
		if b.toHost.Size() == 0 {
			return 0, nil
		}

		return b.toHost.Pop().(uint32), nil
	case OffsetMailboxWrite:
		return 0, nil
	}

	return 0, fmt.Errorf("%s: %w 0x%02x", b.Name(), ErrNoRegister, offset)
}

func (b *Bank) write(offset uint32, sel uint8, data uint32) error {
	switch offset {
	case OffsetClocking:
		b.clocking = merge(b.clocking, data, sel) &
			(ClockingReset | ClockingClockEnable)
	case OffsetResetAddr:
		b.resetAddr = merge(b.resetAddr, data, sel)
	case OffsetDebug:
		b.debug = merge(b.debug, data, sel) & debugWritable
	case OffsetGPIOIn:
		b.gpioIn = merge(b.gpioIn, data, sel)
	case OffsetMailboxWrite:
		if sel != 0 && b.fromHost.CanPush() {
			b.fromHost.Push(merge(0, data, sel))
		}
	case OffsetGPIOOut, OffsetGPIOOE, OffsetMailboxReadStatus,
		OffsetMailboxWriteStatus, OffsetMailboxRead:
	default:
		return fmt.Errorf("%s: %w 0x%02x", b.Name(), ErrNoRegister, offset)
	}

	return nil
}

func status(flag bool, level int) uint32 {
	value := uint32(level) << 16
	if flag {
		value |= 1
	}

	return value
}

// merge replaces the bytes of old selected by sel with the bytes of data.
func merge(old, data uint32, sel uint8) uint32 {
	mask := uint32(0)
	for lane := 0; lane < 4; lane++ {
		if sel&(1<<lane) != 0 {
			mask |= 0xff << (8 * lane)
		}
	}

	return old&^mask | data&mask
}

// Clocking returns the reset and clock enable controls of the core.
func (b *Bank) Clocking() (reset, clockEnable bool) {
	return b.clocking&ClockingReset != 0, b.clocking&ClockingClockEnable != 0
}

// ResetAddr returns the address the core starts from after reset.
func (b *Bank) ResetAddr() uint32 {
	return b.resetAddr
}

// Debug returns the writable part of the DEBUG register.
func (b *Bank) Debug() uint32 {
	return b.debug
}

// SetDebugTDO drives the TDO bit of the DEBUG register.
func (b *Bank) SetDebugTDO(tdo bool) {
	b.tdo = tdo
}

// GPIOIn returns the word the host has written for the core.
func (b *Bank) GPIOIn() uint32 {
	return b.gpioIn
}

// SetGPIOOut drives the GPIO output and output enable words.
func (b *Bank) SetGPIOOut(out, oe uint32) {
	b.gpioOut = out
	b.gpioOE = oe
}

// PushToHost puts a word into the mailbox the host reads. It returns false if
// the mailbox is full.
func (b *Bank) PushToHost(v uint32) bool {
	if !b.toHost.CanPush() {
		return false
	}

	b.toHost.Push(v)

	return true
}

// PopFromHost takes the oldest word the host has written.
func (b *Bank) PopFromHost() (uint32, bool) {
	if b.fromHost.Size() == 0 {
		return 0, false
	}

	return b.fromHost.Pop().(uint32), true
}

// Mailboxes returns the FIFOs towards the host and from the host, so that
// hooks can observe them.
func (b *Bank) Mailboxes() (toHost, fromHost sim.Buffer) {
	return b.toHost, b.fromHost
}
