package sim

import (
	"log"
	"reflect"
)

// LogHookBase gives a hook a logger to write to.
type LogHookBase struct {
	*log.Logger
}

// EventLogger is an engine hook that writes one line per handled event.
type EventLogger struct {
	LogHookBase
}

// NewEventLogger creates an EventLogger that writes to logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{LogHookBase{logger}}
}

// Func logs the event if ctx is the start of an event.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := "?"
	if named, ok := evt.Handler().(Named); ok {
		target = named.Name()
	}

	h.Printf("%.10f, %s -> %s", evt.Time(), reflect.TypeOf(evt), target)
}
