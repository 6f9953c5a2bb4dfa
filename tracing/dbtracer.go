package tracing

import (
	"sync"

	"github.com/sarchlab/axi2wb/datarecording"
	"github.com/sarchlab/axi2wb/sim"
	"github.com/tebeka/atexit"
)

// Tables that DBTracer writes.
const (
	TaskTable = "trace"
	StepTable = "trace_step"
)

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
}

type stepTableEntry struct {
	TaskID string
	Time   float64
	What   string
}

// DBTracer writes finished tasks and their steps through a DataRecorder.
// A task is written only when it ends, so tasks still in flight at exit are
// lost.
type DBTracer struct {
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	mu       sync.Mutex
	from, to sim.VTimeInSec
	inFlight map[string]Task
}

// NewDBTracer creates the tables and a tracer that writes into them. The
// recorder is flushed when the program exits through atexit.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	backend datarecording.DataRecorder,
) *DBTracer {
	backend.CreateTable(TaskTable, taskTableEntry{})
	backend.CreateTable(StepTable, stepTableEntry{})

	t := &DBTracer{
		timeTeller: timeTeller,
		backend:    backend,
		inFlight:   make(map[string]Task),
	}

	atexit.Register(t.Terminate)

	return t
}

// SetTimeRange keeps only the tasks that overlap [from, to]. A zero bound is
// open.
func (t *DBTracer) SetTimeRange(from, to sim.VTimeInSec) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.from, t.to = from, to
}

// StartTask remembers the task and its start time. It panics if the task
// lacks an ID, kind, what, or location.
func (t *DBTracer) StartTask(task Task) {
	for field, value := range map[string]string{
		"ID":       task.ID,
		"kind":     task.Kind,
		"what":     task.What,
		"location": task.Location,
	} {
		if value == "" {
			panic("task " + field + " must be set")
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	if t.to > 0 && task.StartTime > t.to {
		return
	}

	t.inFlight[task.ID] = task
}

// StepTask stamps the steps of the task with the current time.
func (t *DBTracer) StepTask(step Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.inFlight[step.ID]
	if !ok {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, s := range step.Steps {
		s.Time = now
		task.Steps = append(task.Steps, s)
	}

	t.inFlight[step.ID] = task
}

// EndTask writes the task and its steps.
func (t *DBTracer) EndTask(end Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.timeTeller.CurrentTime()

	task, ok := t.inFlight[end.ID]
	if !ok {
		return
	}

	delete(t.inFlight, end.ID)

	if t.from > 0 && now < t.from {
		return
	}

	t.backend.InsertData(TaskTable, taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: float64(task.StartTime),
		EndTime:   float64(now),
	})

	for _, s := range task.Steps {
		t.backend.InsertData(StepTable, stepTableEntry{
			TaskID: task.ID,
			Time:   float64(s.Time),
			What:   s.What,
		})
	}
}

// Terminate drops the tasks in flight and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inFlight = make(map[string]Task)
	t.backend.Flush()
}
