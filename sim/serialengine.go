package sim

import (
	"log"
	"reflect"
	"sync"
)

// Hook positions of an Engine. The item is the event being handled.
var (
	HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &HookPos{Name: "AfterEvent"}
)

// A SerialEngine handles events one at a time on the goroutine that calls Run.
// Pause and Continue may be called from other goroutines, for example from
// the monitoring server.
type SerialEngine struct {
	HookableBase

	queue *EventQueueImpl

	mu     sync.Mutex
	now    VTimeInSec
	paused bool
	resume *sync.Cond

	running sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine at time 0.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resume = sync.NewCond(&e.mu)

	return e
}

// Schedule queues an event. It panics if the event is in the past.
func (e *SerialEngine) Schedule(evt Event) {
	if now := e.CurrentTime(); evt.Time() < now {
		log.Panicf("cannot schedule %s at %.10f, now is %.10f",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	e.queue.Push(evt)
}

// CurrentTime returns the time of the event being handled, or of the last
// handled event.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

// Run handles events until the queue is empty or a handler fails.
func (e *SerialEngine) Run() error {
	e.running.Lock()
	defer e.running.Unlock()

	for e.queue.Len() > 0 {
		if err := e.handleNext(); err != nil {
			return err
		}
	}

	return nil
}

func (e *SerialEngine) handleNext() error {
	e.mu.Lock()
	for e.paused {
		e.resume.Wait()
	}

	evt := e.queue.Pop()
	e.now = evt.Time()
	e.mu.Unlock()

	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

// Pause stops Run before the next event.
func (e *SerialEngine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Continue lets a paused Run go on.
func (e *SerialEngine) Continue() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()

	e.resume.Broadcast()
}

// RegisterSimulationEndHandler adds a handler that Finished calls.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished calls the simulation end handlers with the current time.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
