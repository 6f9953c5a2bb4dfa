// Package tracing records tasks, such as bus transactions, as they flow
// through hookable components.
//
// Components report tasks with StartTask, AddTaskStep, and EndTask. The calls
// cost nothing when no tracer is attached to the component.
package tracing

import (
	"github.com/sarchlab/axi2wb/sim"
)

// NamedHookable is a component that tasks can be reported on.
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// Hook positions used to report tasks. The item is a Task.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask reports that domain started working on a task. The id, kind, and
// what must not be empty. The detail is passed to the tracers as is.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if !traced(domain) {
		return
	}

	mustBeSet("id", id)
	mustBeSet("kind", kind)
	mustBeSet("what", what)
	mustBeSet("domain name", domain.Name())

	emit(domain, HookPosTaskStart, Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Location: domain.Name(),
		Detail:   detail,
	})
}

// AddTaskStep reports a milestone of a started task.
func AddTaskStep(id string, domain NamedHookable, what string) {
	if !traced(domain) {
		return
	}

	emit(domain, HookPosTaskStep, Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	})
}

// EndTask reports that domain finished a task.
func EndTask(id string, domain NamedHookable) {
	if !traced(domain) {
		return
	}

	emit(domain, HookPosTaskEnd, Task{ID: id})
}

func traced(domain NamedHookable) bool {
	if domain == nil {
		panic("domain must not be nil")
	}

	return domain.NumHooks() > 0
}

func mustBeSet(field, value string) {
	if value == "" {
		panic(field + " must not be empty")
	}
}

func emit(domain NamedHookable, pos *sim.HookPos, task Task) {
	domain.InvokeHook(sim.HookCtx{Domain: domain, Pos: pos, Item: task})
}
