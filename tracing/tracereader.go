package tracing

import (
	"context"
	"sort"
	"strings"

	"github.com/sarchlab/axi2wb/datarecording"
	"github.com/sarchlab/axi2wb/sim"
)

// TaskQuery is used to define the tasks to be queried. Not all the field has to
// be set. If the fields are empty, the criteria is ignored.
type TaskQuery struct {
	// Use ID to select a single task by its ID.
	ID string

	// Use ParentID to select all the tasks that are children of a task.
	ParentID string

	// Use Kind to select all the tasks that are of a kind.
	Kind string

	// Use Location to select all the tasks that are executed at a location.
	Location string

	// Enable time range selection.
	EnableTimeRange bool

	// Use StartTime to select tasks that overlaps with the given task range.
	StartTime, EndTime float64
}

// TaskSummary aggregates the tasks of one kind and what.
type TaskSummary struct {
	Kind        string
	What        string
	Count       int
	AverageTime sim.VTimeInSec
}

// TraceReader reads back the tasks stored by a DBTracer.
type TraceReader struct {
	reader datarecording.DataReader
}

// NewTraceReader creates a TraceReader on top of a data reader.
func NewTraceReader(reader datarecording.DataReader) *TraceReader {
	reader.MapTable(TaskTable, taskTableEntry{})
	reader.MapTable(StepTable, stepTableEntry{})

	return &TraceReader{reader: reader}
}

// ListComponents returns all the locations used in the trace.
func (r *TraceReader) ListComponents(ctx context.Context) ([]string, error) {
	tasks, err := r.ListTasks(ctx, TaskQuery{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	components := []string{}

	for _, t := range tasks {
		if !seen[t.Location] {
			seen[t.Location] = true
			components = append(components, t.Location)
		}
	}

	sort.Strings(components)

	return components, nil
}

// ListTasks returns the tasks that match the query, ordered by start time.
func (r *TraceReader) ListTasks(
	ctx context.Context,
	query TaskQuery,
) ([]Task, error) {
	params := prepareTaskQuery(query)

	results, _, err := r.reader.Query(ctx, TaskTable, params)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(results))
	for _, res := range results {
		e := res.(*taskTableEntry)
		tasks = append(tasks, Task{
			ID:        e.ID,
			ParentID:  e.ParentID,
			Kind:      e.Kind,
			What:      e.What,
			Location:  e.Location,
			StartTime: sim.VTimeInSec(e.StartTime),
			EndTime:   sim.VTimeInSec(e.EndTime),
		})
	}

	return tasks, nil
}

// ListSteps returns the steps of a task in the order they happened.
func (r *TraceReader) ListSteps(
	ctx context.Context,
	taskID string,
) ([]TaskStep, error) {
	results, _, err := r.reader.Query(ctx, StepTable,
		datarecording.QueryParams{
			Where:   "TaskID = ?",
			Args:    []any{taskID},
			OrderBy: "Time",
		})
	if err != nil {
		return nil, err
	}

	steps := make([]TaskStep, 0, len(results))
	for _, res := range results {
		e := res.(*stepTableEntry)
		steps = append(steps, TaskStep{
			Time: sim.VTimeInSec(e.Time),
			What: e.What,
		})
	}

	return steps, nil
}

func prepareTaskQuery(query TaskQuery) datarecording.QueryParams {
	conditions := []string{}
	args := []any{}

	addCondition := func(cond string, arg any) {
		conditions = append(conditions, cond)
		args = append(args, arg)
	}

	if query.ID != "" {
		addCondition("ID = ?", query.ID)
	}

	if query.ParentID != "" {
		addCondition("ParentID = ?", query.ParentID)
	}

	if query.Kind != "" {
		addCondition("Kind = ?", query.Kind)
	}

	if query.Location != "" {
		addCondition("Location = ?", query.Location)
	}

	if query.EnableTimeRange {
		addCondition("EndTime > ?", query.StartTime)
		addCondition("StartTime < ?", query.EndTime)
	}

	return datarecording.QueryParams{
		Where:   strings.Join(conditions, " AND "),
		Args:    args,
		OrderBy: "StartTime, ID",
	}
}

// Summarize groups all tasks by kind and what.
func (r *TraceReader) Summarize(ctx context.Context) ([]TaskSummary, error) {
	tasks, err := r.ListTasks(ctx, TaskQuery{})
	if err != nil {
		return nil, err
	}

	type key struct{ kind, what string }

	groups := make(map[key]*TaskSummary)
	keys := []key{}

	for _, t := range tasks {
		k := key{t.Kind, t.What}

		s, ok := groups[k]
		if !ok {
			s = &TaskSummary{Kind: t.Kind, What: t.What}
			groups[k] = s
			keys = append(keys, k)
		}

		duration := t.EndTime - t.StartTime
		s.AverageTime = (s.AverageTime*sim.VTimeInSec(s.Count) + duration) /
			sim.VTimeInSec(s.Count+1)
		s.Count++
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}

		return keys[i].what < keys[j].what
	})

	summaries := make([]TaskSummary, 0, len(keys))
	for _, k := range keys {
		summaries = append(summaries, *groups[k])
	}

	return summaries, nil
}
