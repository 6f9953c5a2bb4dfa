package tracing

import (
	"sync"

	"github.com/sarchlab/axi2wb/sim"
)

// AverageTimeTracer measures how long the tasks that pass its filter take,
// overall and per What.
type AverageTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	mu      sync.Mutex
	started map[string]Task
	overall durations
	perWhat map[string]*durations
}

// durations keeps a running mean and the maximum of a series.
type durations struct {
	mean  sim.VTimeInSec
	max   sim.VTimeInSec
	count uint64
}

func (d *durations) add(x sim.VTimeInSec) {
	d.count++
	d.mean += (x - d.mean) / sim.VTimeInSec(d.count)
	d.max = max(d.max, x)
}

// NewAverageTimeTracer creates a tracer. A nil filter keeps every task.
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		started:    make(map[string]Task),
		perWhat:    make(map[string]*durations),
	}
}

// AverageTime returns the mean time of the completed tasks.
func (t *AverageTimeTracer) AverageTime() sim.VTimeInSec {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.overall.mean
}

// MaxTime returns the longest time of the completed tasks.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInSec {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.overall.max
}

// TotalCount returns the number of completed tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.overall.count
}

// AverageTimeOf returns the mean time and the number of the completed tasks
// with the given What.
func (t *AverageTimeTracer) AverageTimeOf(what string) (sim.VTimeInSec, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d, ok := t.perWhat[what]; ok {
		return d.mean, d.count
	}

	return 0, 0
}

func (t *AverageTimeTracer) StartTask(task Task) {
	task.StartTime = t.timeTeller.CurrentTime()
	if !t.filter(task) {
		return
	}

	t.mu.Lock()
	t.started[task.ID] = task
	t.mu.Unlock()
}

func (t *AverageTimeTracer) StepTask(Task) {}

func (t *AverageTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.mu.Lock()
	defer t.mu.Unlock()

	begin, ok := t.started[task.ID]
	if !ok {
		return
	}

	delete(t.started, task.ID)

	d := t.perWhat[begin.What]
	if d == nil {
		d = &durations{}
		t.perWhat[begin.What] = d
	}

	elapsed := now - begin.StartTime
	t.overall.add(elapsed)
	d.add(elapsed)
}
