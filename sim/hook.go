package sim

// HookPos names a place where hooks are invoked.
type HookPos struct {
	Name string
}

// HookCtx is what a hook is told when it is invoked.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// A Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc lets a plain function be used as a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// Hookable is anything hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	Hooks() []Hook
}

// HookableBase implements Hookable. Embed it and call InvokeHook.
type HookableBase struct {
	hooks []Hook
}

func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// InvokeHook calls every hook in the order they were accepted.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
