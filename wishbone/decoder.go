package wishbone

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/axi2wb/sim"
)

// Errors returned when building an address map.
var (
	ErrWindowSize      = errors.New("window size must be a power of two")
	ErrWindowAlignment = errors.New("window base must be aligned to its size")
	ErrWindowOverlap   = errors.New("window overlaps an existing window")
)

// HookPosDecodeError marks that a request did not hit any window. The item is
// the Request.
var HookPosDecodeError = &sim.HookPos{Name: "WB Decode Error"}

// A Window is a range of byte addresses served by one target.
type Window struct {
	Name   string
	Base   uint32
	Size   uint64
	Target Target
}

// Contains tells if the byte address falls in the window.
func (w Window) Contains(byteAddr uint32) bool {
	return byteAddr >= w.Base && uint64(byteAddr-w.Base) < w.Size
}

// A Decoder routes each request to the target whose window contains its
// address. The target sees a word address relative to its window base.
// Requests that hit no window are terminated by the decoder itself with ERR
// in the next tick.
type Decoder struct {
	*sim.ComponentBase

	windows    []Window
	errPending bool
}

// NewDecoder creates a decoder with an empty address map.
func NewDecoder(name string) *Decoder {
	return &Decoder{
		ComponentBase: sim.NewComponentBase(name),
	}
}

// Map adds a window to the address map.
func (d *Decoder) Map(name string, base uint32, size uint64, t Target) error {
	if size < 4 || size&(size-1) != 0 {
		return fmt.Errorf("%s: %w", name, ErrWindowSize)
	}

	if uint64(base)&(size-1) != 0 {
		return fmt.Errorf("%s: %w", name, ErrWindowAlignment)
	}

	if uint64(base)+size > 1<<32 {
		return fmt.Errorf("%s: window ends past the address space", name)
	}

	for _, w := range d.windows {
		if uint64(base) < uint64(w.Base)+w.Size &&
			uint64(w.Base) < uint64(base)+size {
			return fmt.Errorf("%s and %s: %w", name, w.Name, ErrWindowOverlap)
		}
	}

	d.windows = append(d.windows, Window{
		Name:   name,
		Base:   base,
		Size:   size,
		Target: t,
	})

	sort.Slice(d.windows, func(i, j int) bool {
		return d.windows[i].Base < d.windows[j].Base
	})

	return nil
}

// Windows returns the address map sorted by base address.
func (d *Decoder) Windows() []Window {
	return d.windows
}

// Find returns the window that contains the byte address.
func (d *Decoder) Find(byteAddr uint32) (Window, bool) {
	for _, w := range d.windows {
		if w.Contains(byteAddr) {
			return w, true
		}
	}

	return Window{}, false
}

// Response merges the responses of all targets. Only the addressed target
// can be responding, since the others only ever see idle requests.
func (d *Decoder) Response() Response {
	rsp := Response{Err: d.errPending}

	for _, w := range d.windows {
		rsp = rsp.Or(w.Target.Response())
	}

	return rsp
}

// Step forwards the request to the addressed target and idles all others.
func (d *Decoder) Step(req Request) bool {
	progress := false
	hit := false

	for _, w := range d.windows {
		local := Request{}

		if req.Cyc && w.Contains(req.ByteAddr()) {
			hit = true
			local = req
			local.Adr = (req.ByteAddr() - w.Base) >> 2
		}

		progress = w.Target.Step(local) || progress
	}

	if d.errPending {
		d.errPending = false
		progress = true
	} else if req.Active() && !hit {
		d.errPending = true
		progress = true

		d.InvokeHook(sim.HookCtx{
			Domain: d,
			Pos:    HookPosDecodeError,
			Item:   req,
		})
	}

	return progress
}
