package sim

import "sync"

// TickEvent asks a handler to advance by one clock cycle.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a primary tick for handler at time.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	return TickEvent{EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    time,
		handler: handler,
	}}
}

// A Ticker advances its state by one cycle. Tick returns false if nothing
// changed, in which case no further tick is needed until new input arrives.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules tick events on clock edges and never schedules a
// tick at or before one already pending.
type TickScheduler struct {
	Freq   Freq
	Engine Engine

	handler Handler

	mu      sync.Mutex
	pending VTimeInSec
}

// NewTickScheduler creates a scheduler that ticks handler at freq.
func NewTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	return &TickScheduler{
		Freq:    freq,
		Engine:  engine,
		handler: handler,
		pending: -1,
	}
}

// TickNow schedules a tick on the current clock edge.
func (t *TickScheduler) TickNow() {
	t.scheduleAt(t.Freq.ThisTick(t.CurrentTime()))
}

// TickLater schedules a tick on the next clock edge.
func (t *TickScheduler) TickLater() {
	t.scheduleAt(t.Freq.NextTick(t.CurrentTime()))
}

func (t *TickScheduler) scheduleAt(time VTimeInSec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time <= t.pending {
		return
	}

	t.pending = time
	t.Engine.Schedule(MakeTickEvent(t.handler, time))
}

// CurrentTime returns the time of the engine.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.Engine.CurrentTime()
}

// CurrentCycle returns the number of whole cycles since time 0.
func (t *TickScheduler) CurrentCycle() uint64 {
	return t.Freq.Cycle(t.CurrentTime())
}

// TickingComponent is a component driven by a Ticker. It keeps ticking as
// long as the Ticker makes progress.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// NewTickingComponent creates a component that ticks ticker at freq.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{
		ComponentBase: NewComponentBase(name),
		ticker:        ticker,
	}
	tc.TickScheduler = NewTickScheduler(tc, engine, freq)

	return tc
}

// Handle runs one tick.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}
