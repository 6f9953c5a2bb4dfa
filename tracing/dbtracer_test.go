package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/axi2wb/sim"
)

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl   *gomock.Controller
		timeTeller *MockTimeTeller
		backend    *MockDataRecorder
		tracer     *DBTracer
		task       Task
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		timeTeller = NewMockTimeTeller(mockCtrl)
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(TaskTable, taskTableEntry{})
		backend.EXPECT().CreateTable(StepTable, stepTableEntry{})
		tracer = NewDBTracer(timeTeller, backend)

		task = Task{
			ID:       "1",
			ParentID: "0",
			Kind:     "req_in",
			What:     "read",
			Location: "SoC.Bridge",
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write completed tasks", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(task)

		backend.EXPECT().InsertData(TaskTable, taskTableEntry{
			ID:        "1",
			ParentID:  "0",
			Kind:      "req_in",
			What:      "read",
			Location:  "SoC.Bridge",
			StartTime: 1,
			EndTime:   3,
		})
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(3))
		tracer.EndTask(Task{ID: "1"})
	})

	It("should write the steps of a task after the task", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(task)
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.StepTask(Task{ID: "1", Steps: []TaskStep{{What: "drain"}}})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(4))
		insertTask := backend.EXPECT().InsertData(TaskTable, gomock.Any())
		backend.EXPECT().InsertData(StepTable, stepTableEntry{
			TaskID: "1",
			Time:   2,
			What:   "drain",
		}).After(insertTask)
		tracer.EndTask(Task{ID: "1"})
	})

	It("should ignore steps of unknown tasks", func() {
		tracer.StepTask(Task{ID: "9", Steps: []TaskStep{{What: "drain"}}})
	})

	It("should panic on incomplete tasks", func() {
		task.Location = ""

		Expect(func() { tracer.StartTask(task) }).To(Panic())
	})

	It("should skip tasks outside of the time range", func() {
		tracer.SetTimeRange(10, 20)

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(task)
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(5))
		tracer.EndTask(Task{ID: "1"})

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(21))
		tracer.StartTask(task)
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(22))
		tracer.EndTask(Task{ID: "1"})
	})

	It("should drop unfinished tasks on terminate", func() {
		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(1))
		tracer.StartTask(task)

		backend.EXPECT().Flush()
		tracer.Terminate()

		timeTeller.EXPECT().CurrentTime().Return(sim.VTimeInSec(2))
		tracer.EndTask(Task{ID: "1"})
	})
})
