package wishbone

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("RegisteredTarget", func() {
	var (
		mockCtrl *gomock.Controller
		device   *MockDevice
		target   *RegisteredTarget
		read     Request
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		device = NewMockDevice(mockCtrl)
		read = Request{Cyc: true, Stb: true, Adr: 0x40, Sel: 0xf}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not respond while idle", func() {
		target = NewRegisteredTarget("Target", device, 0)

		Expect(target.Step(Request{})).To(BeFalse())
		Expect(target.Step(Request{Cyc: true})).To(BeFalse())
		Expect(target.Response()).To(Equal(Response{}))
	})

	It("should ack one tick after the request", func() {
		target = NewRegisteredTarget("Target", device, 0)
		device.EXPECT().Access(read).Return(uint32(0xdeadbeef), nil)

		Expect(target.Response().Done()).To(BeFalse())
		target.Step(read)

		Expect(target.Response()).To(Equal(
			Response{Ack: true, DatR: 0xdeadbeef}))
	})

	It("should ack exactly once", func() {
		target = NewRegisteredTarget("Target", device, 0)
		device.EXPECT().Access(read).Return(uint32(1), nil).Times(1)

		acks := 0
		for i := 0; i < 2; i++ {
			if target.Response().Ack {
				acks++
			}
			target.Step(read)
		}

		Expect(acks).To(Equal(1))
		Expect(target.Response().Done()).To(BeFalse())
	})

	It("should respond with err if the device fails", func() {
		target = NewRegisteredTarget("Target", device, 0)
		device.EXPECT().Access(read).Return(uint32(0), errors.New("bad"))

		target.Step(read)

		Expect(target.Response()).To(Equal(Response{Err: true}))
	})

	It("should insert wait states", func() {
		target = NewRegisteredTarget("Target", device, 2)
		device.EXPECT().Access(read).Return(uint32(7), nil)

		responses := []Response{}
		for i := 0; i < 5; i++ {
			responses = append(responses, target.Response())
			target.Step(read)
		}

		Expect(responses).To(Equal([]Response{
			{}, {}, {}, {Ack: true, DatR: 7}, {},
		}))
	})

	It("should abandon the access if the initiator drops the request", func() {
		target = NewRegisteredTarget("Target", device, 2)

		target.Step(read)
		target.Step(Request{})
		target.Step(Request{})

		Expect(target.Response()).To(Equal(Response{}))
	})

	It("should panic on negative wait states", func() {
		Expect(func() {
			NewRegisteredTarget("Target", device, -1)
		}).To(Panic())
	})

	It("should accept a function as the device", func() {
		target = NewRegisteredTarget("Target",
			DeviceFunc(func(req Request) (uint32, error) {
				return req.Adr, nil
			}), 0)

		target.Step(read)

		Expect(target.Response().DatR).To(Equal(uint32(0x40)))
	})
})
