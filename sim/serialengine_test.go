package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type endHandlerFunc func(now VTimeInSec)

func (f endHandlerFunc) Handle(now VTimeInSec) { f(now) }

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	mockEvent := func(
		t VTimeInSec,
		handler Handler,
		secondary bool,
	) *MockEvent {
		evt := NewMockEvent(mockCtrl)
		evt.EXPECT().Time().Return(t).AnyTimes()
		evt.EXPECT().Handler().Return(handler).AnyTimes()
		evt.EXPECT().IsSecondary().Return(secondary).AnyTimes()

		return evt
	}

	It("should schedule events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		evt1 := mockEvent(4.0, handler1, false)
		evt2 := mockEvent(2.0, handler2, false)
		evt3 := mockEvent(3.0, handler1, false)
		evt4 := mockEvent(5.0, handler1, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2).Do(func(e Event) {
			engine.Schedule(evt3)
			engine.Schedule(evt4)
		})
		handleEvt3 := handler1.EXPECT().Handle(evt3).After(handleEvt2)
		handleEvt1 := handler1.EXPECT().Handle(evt1).After(handleEvt3)
		handler1.EXPECT().Handle(evt4).After(handleEvt1)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		err := engine.Run()

		Expect(err).NotTo(HaveOccurred())
		Expect(engine.CurrentTime()).To(Equal(VTimeInSec(5.0)))
	})

	It("should consider secondary events", func() {
		handler1 := NewMockHandler(mockCtrl)
		handler2 := NewMockHandler(mockCtrl)
		handler3 := NewMockHandler(mockCtrl)
		evt1 := mockEvent(2.0, handler1, true)
		evt2 := mockEvent(2.0, handler2, false)
		evt3 := mockEvent(2.0, handler3, false)

		handleEvt2 := handler2.EXPECT().Handle(evt2)
		handleEvt3 := handler3.EXPECT().Handle(evt3)
		handler1.EXPECT().
			Handle(evt1).
			After(handleEvt2).
			After(handleEvt3)

		engine.Schedule(evt1)
		engine.Schedule(evt2)
		engine.Schedule(evt3)

		_ = engine.Run()
	})

	It("should stop when a handler fails", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := mockEvent(1.0, handler, false)
		evt2 := mockEvent(2.0, handler, false)

		handler.EXPECT().Handle(evt1).Return(errors.New("boom"))

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		err := engine.Run()

		Expect(err).To(MatchError("boom"))
	})

	It("should invoke hooks around each event", func() {
		handler := NewMockHandler(mockCtrl)
		hook := NewMockHook(mockCtrl)
		evt := mockEvent(1.0, handler, false)
		engine.AcceptHook(hook)

		before := hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(HookPosBeforeEvent))
			Expect(ctx.Item).To(BeIdenticalTo(evt))
		})
		handleEvt := handler.EXPECT().Handle(evt).After(before)
		hook.EXPECT().Func(gomock.Any()).Do(func(ctx HookCtx) {
			Expect(ctx.Pos).To(BeIdenticalTo(HookPosAfterEvent))
		}).After(handleEvt)

		engine.Schedule(evt)
		_ = engine.Run()
	})

	It("should panic when scheduling into the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt := mockEvent(2.0, handler, false)
		past := mockEvent(1.0, handler, false)
		handler.EXPECT().Handle(evt).Do(func(e Event) {
			Expect(func() { engine.Schedule(past) }).To(Panic())
		})

		engine.Schedule(evt)
		_ = engine.Run()
	})

	It("should hold events while paused", func() {
		handler := NewMockHandler(mockCtrl)
		evt := mockEvent(1.0, handler, false)
		handled := make(chan struct{})
		handler.EXPECT().Handle(evt).Do(func(e Event) { close(handled) })

		engine.Schedule(evt)
		engine.Pause()

		done := make(chan error)
		go func() { done <- engine.Run() }()

		Consistently(handled, "50ms").ShouldNot(BeClosed())

		engine.Continue()

		Eventually(handled).Should(BeClosed())
		Eventually(done).Should(Receive(BeNil()))
	})

	It("should call simulation end handlers", func() {
		var endTime VTimeInSec = -1
		engine.RegisterSimulationEndHandler(endHandlerFunc(func(now VTimeInSec) {
			endTime = now
		}))

		engine.Finished()

		Expect(endTime).To(Equal(VTimeInSec(0)))
	})
})
