package sim

import "log"

// Hook positions of a Buffer. The item is the element pushed or popped.
var (
	HookPosBufPush = &HookPos{Name: "Buffer Push"}
	HookPosBufPop  = &HookPos{Name: "Buffer Pop"}
)

// A Buffer is a bounded FIFO of arbitrary elements.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e interface{})
	Pop() interface{}
	Peek() interface{}
	Capacity() int
	Size() int
	Clear()
}

// NewBuffer creates a buffer that holds at most capacity elements.
func NewBuffer(name string, capacity int) Buffer {
	NameMustBeValid(name)

	return &ringBuffer{
		name:  name,
		slots: make([]interface{}, capacity),
	}
}

// ringBuffer stores the elements in a fixed slice. head is the slot of the
// oldest element.
type ringBuffer struct {
	HookableBase

	name  string
	slots []interface{}
	head  int
	count int
}

func (b *ringBuffer) Name() string {
	return b.name
}

func (b *ringBuffer) Capacity() int {
	return len(b.slots)
}

func (b *ringBuffer) Size() int {
	return b.count
}

func (b *ringBuffer) CanPush() bool {
	return b.count < len(b.slots)
}

func (b *ringBuffer) Push(e interface{}) {
	if !b.CanPush() {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.slots[(b.head+b.count)%len(b.slots)] = e
	b.count++

	b.notify(HookPosBufPush, e)
}

func (b *ringBuffer) Peek() interface{} {
	if b.count == 0 {
		return nil
	}

	return b.slots[b.head]
}

func (b *ringBuffer) Pop() interface{} {
	if b.count == 0 {
		return nil
	}

	e := b.slots[b.head]
	b.slots[b.head] = nil
	b.head = (b.head + 1) % len(b.slots)
	b.count--

	b.notify(HookPosBufPop, e)

	return e
}

func (b *ringBuffer) Clear() {
	for i := range b.slots {
		b.slots[i] = nil
	}

	b.head = 0
	b.count = 0
}

func (b *ringBuffer) notify(pos *HookPos, e interface{}) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{Domain: b, Pos: pos, Item: e})
}
