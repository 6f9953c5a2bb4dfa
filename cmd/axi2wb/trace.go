package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/axi2wb/datarecording"
	"github.com/sarchlab/axi2wb/tracing"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file>",
	Short: "Summarize a trace recorded by `run --trace`.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if traceTaskID != "" {
			return showTask(cmd.Context(), args[0], traceTaskID,
				cmd.OutOrStdout())
		}

		return summarizeTrace(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

var traceTaskID string

func init() {
	traceCmd.Flags().StringVar(&traceTaskID, "task", "",
		"Show one task with its subtasks and steps instead of the summary.")
	rootCmd.AddCommand(traceCmd)
}

func openTrace(file string) (datarecording.DataReader, error) {
	if _, err := os.Stat(file); err != nil {
		return nil, err
	}

	return datarecording.NewReader(file)
}

func summarizeTrace(ctx context.Context, file string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := openTrace(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	traceReader := tracing.NewTraceReader(reader)

	components, err := traceReader.ListComponents(ctx)
	if err != nil {
		return err
	}

	summaries, err := traceReader.Summarize(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "components")
	for _, c := range components {
		fmt.Fprintf(w, "  %s\n", c)
	}

	fmt.Fprintln(w, "kind\twhat\tcount\taverage (s)")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.9f\n",
			s.Kind, s.What, s.Count, s.AverageTime)
	}

	return w.Flush()
}

func showTask(
	ctx context.Context,
	file, id string,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := openTrace(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	traceReader := tracing.NewTraceReader(reader)

	tasks, err := traceReader.ListTasks(ctx, tracing.TaskQuery{ID: id})
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		return fmt.Errorf("task %s not found in %s", id, file)
	}

	children, err := traceReader.ListTasks(ctx, tracing.TaskQuery{ParentID: id})
	if err != nil {
		return err
	}

	steps, err := traceReader.ListSteps(ctx, id)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for _, t := range append(tasks, children...) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.9f\t%.9f\n",
			t.ID, t.Kind, t.What, t.Location, t.StartTime, t.EndTime)
	}

	for _, s := range steps {
		fmt.Fprintf(w, "  step\t%s\t%.9f\n", s.What, s.Time)
	}

	return w.Flush()
}
