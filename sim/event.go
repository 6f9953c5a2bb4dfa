package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is handled by its Handler at its Time. Secondary events run after
// every primary event of the same time.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
	IsSecondary() bool
}

// A Handler handles the events scheduled for it. An event may only change the
// state of its own handler.
type Handler interface {
	Handle(e Event) error
}

// EventBase holds the fields every event needs. Embed it to define an event.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

func (e EventBase) Time() VTimeInSec {
	return e.time
}

func (e EventBase) Handler() Handler {
	return e.handler
}

func (e EventBase) IsSecondary() bool {
	return e.secondary
}
