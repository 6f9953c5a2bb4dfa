package tracing

import (
	"fmt"

	"github.com/sarchlab/axi2wb/sim"
)

// A Tracer is told about the tasks of the domains it is attached to.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}

// CollectTrace attaches tracer to domain. Attaching the same tracer twice
// panics, since every task would be counted twice.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	for _, h := range domain.Hooks() {
		if th, ok := h.(tracerHook); ok && th.tracer == tracer {
			panic(fmt.Sprintf("tracer %T is already attached to %s",
				tracer, domain.Name()))
		}
	}

	domain.AcceptHook(tracerHook{tracer: tracer})
}

// tracerHook forwards task reports to a Tracer.
type tracerHook struct {
	tracer Tracer
}

func (h tracerHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(task)
	case HookPosTaskStep:
		h.tracer.StepTask(task)
	case HookPosTaskEnd:
		h.tracer.EndTask(task)
	}
}
