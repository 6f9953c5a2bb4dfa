// Package axi defines the subset of the AXI3 protocol that the bridge accepts:
// the five handshake channels, their payloads, and an upstream manager model
// that drives them.
package axi

import "fmt"

// Field widths of the general purpose port the bridge sits behind.
const (
	IDWidth   = 12
	IDMask    = 1<<IDWidth - 1
	LenMask   = 0xf
	StrbMask  = 0xf
	DataBytes = 4
)

// Size encodes the number of bytes in one beat as a power of two.
type Size uint8

// The beat sizes defined by AXI that fit a 32-bit data bus, plus the first one
// that does not.
const (
	Size1 Size = iota
	Size2
	Size4
	Size8
)

// Bytes returns the number of bytes in one beat.
func (s Size) Bytes() int {
	return 1 << s
}

func (s Size) String() string {
	return fmt.Sprintf("%dB", s.Bytes())
}

// Resp is the two-bit response code carried on the R and B channels.
type Resp uint8

// Response codes. The bridge only produces RespOkay and RespSlvErr.
const (
	RespOkay   Resp = 0b00
	RespExOkay Resp = 0b01
	RespSlvErr Resp = 0b10
	RespDecErr Resp = 0b11
)

// IsError tells if the response reports a failed transfer.
func (r Resp) IsError() bool {
	return r&0b10 != 0
}

func (r Resp) String() string {
	switch r {
	case RespOkay:
		return "OKAY"
	case RespExOkay:
		return "EXOKAY"
	case RespSlvErr:
		return "SLVERR"
	case RespDecErr:
		return "DECERR"
	}

	return fmt.Sprintf("Resp(%d)", uint8(r))
}

// ReadReq is the payload of the read address (AR) channel.
type ReadReq struct {
	ID   uint16
	Addr uint32
	Size Size
	Len  uint8
}

// ReadRsp is the payload of the read data (R) channel.
type ReadRsp struct {
	ID   uint16
	Data uint32
	Resp Resp
	Last bool
}

// WriteReq is the payload of the write address (AW) channel.
type WriteReq struct {
	ID   uint16
	Addr uint32
	Size Size
	Len  uint8
}

// WriteData is the payload of the write data (W) channel.
type WriteData struct {
	Data uint32
	Strb uint8
	Last bool
}

// WriteRsp is the payload of the write response (B) channel.
type WriteRsp struct {
	ID   uint16
	Resp Resp
}

// A Channel is the source side of one valid/ready handshake: the payload is
// only meaningful while Valid is set.
type Channel[T any] struct {
	Valid   bool
	Payload T
}

// Offer returns a channel that presents the payload.
func Offer[T any](payload T) Channel[T] {
	return Channel[T]{Valid: true, Payload: payload}
}

// Fire tells if the transfer happens in this tick given the sink's ready.
func (c Channel[T]) Fire(ready bool) bool {
	return c.Valid && ready
}

// ManagerSignals are the signals driven by the upstream side of the link.
type ManagerSignals struct {
	AR     Channel[ReadReq]
	RReady bool

	AW     Channel[WriteReq]
	W      Channel[WriteData]
	BReady bool
}

// SubordinateSignals are the signals driven by the bridge side of the link.
type SubordinateSignals struct {
	ARReady bool
	R       Channel[ReadRsp]

	AWReady bool
	WReady  bool
	B       Channel[WriteRsp]
}
