package sim

import (
	"log"
	"math"
)

// Freq is a clock frequency in Hz.
type Freq float64

// Frequency units.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time of one cycle. It panics on a zero frequency.
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1 / f)
}

// Cycle returns the number of cycles from time 0 to t, rounded to the nearest
// cycle.
func (f Freq) Cycle(t VTimeInSec) uint64 {
	return uint64(math.Round(float64(t) * float64(f)))
}

// cycles converts t to a cycle count kept to a tenth of a cycle, so that
// floating point noise does not move a time across a clock edge.
func (f Freq) cycles(t VTimeInSec) float64 {
	if math.IsNaN(float64(t)) {
		log.Panic("invalid time")
	}

	return math.Round(float64(t)*10*float64(f)) / 10
}

// ThisTick returns the first clock edge at or after now.
func (f Freq) ThisTick(now VTimeInSec) VTimeInSec {
	return VTimeInSec(math.Ceil(f.cycles(now)) / float64(f))
}

// NextTick returns the first clock edge strictly after now.
func (f Freq) NextTick(now VTimeInSec) VTimeInSec {
	return VTimeInSec((math.Floor(f.cycles(now)) + 1) / float64(f))
}
