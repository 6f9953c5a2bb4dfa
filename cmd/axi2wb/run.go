package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/axi2wb/bridge"
	"github.com/sarchlab/axi2wb/datarecording"
	"github.com/sarchlab/axi2wb/monitoring"
	"github.com/sarchlab/axi2wb/sim"
	"github.com/sarchlab/axi2wb/soc"
	"github.com/sarchlab/axi2wb/tracing"
)

type runConfig struct {
	numTxns      int
	seed         int64
	illegalRatio float64
	policy       string
	freqMHz      float64
	waitStates   int
	traceFile    string
	eventLog     string
	monitor      bool
	monitorPort  int
	openBrowser  bool
	uniqueIDs    bool
}

var runCfg runConfig

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run random traffic through the bridge and print statistics.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if runCfg.uniqueIDs {
			sim.UseParallelIDGenerator()
		}

		return runTraffic(runCfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.IntVar(&runCfg.numTxns, "num-txns", 1000,
		"number of transactions to issue")
	flags.Int64Var(&runCfg.seed, "seed", 1, "seed of the traffic generator")
	flags.Float64Var(&runCfg.illegalRatio, "illegal-ratio", 0.1,
		"share of transactions the bridge must reject")
	flags.StringVar(&runCfg.policy, "policy", string(bridge.PolicyRoundRobin),
		"arbitration policy, round_robin or read_priority")
	flags.Float64Var(&runCfg.freqMHz, "freq", 100, "clock frequency in MHz")
	flags.IntVar(&runCfg.waitStates, "wait-states", 0,
		"wait states of the memory target")
	flags.StringVar(&runCfg.traceFile, "trace", "",
		"record tasks into this SQLite file, without the .sqlite3 suffix")
	flags.StringVar(&runCfg.eventLog, "event-log", "",
		"log every event and transaction into this file")
	flags.BoolVar(&runCfg.monitor, "monitor", false,
		"serve the monitoring web page while running")
	flags.IntVar(&runCfg.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if 0")
	flags.BoolVar(&runCfg.openBrowser, "open-browser", false,
		"open the monitoring page in a browser")
	flags.BoolVar(&runCfg.uniqueIDs, "unique-ids", false,
		"use globally unique task IDs, so that traces of runs can be merged")
}

func (c runConfig) validate() error {
	if c.numTxns < 0 {
		return fmt.Errorf("num-txns must be >= 0")
	}

	if c.illegalRatio < 0 || c.illegalRatio > 1 {
		return fmt.Errorf("illegal-ratio must be in [0, 1]")
	}

	if c.openBrowser && !c.monitor {
		return fmt.Errorf("open-browser needs monitor")
	}

	return nil
}

func (c runConfig) spec() soc.Spec {
	spec := soc.Defaults()
	spec.Freq = sim.Freq(c.freqMHz) * sim.MHz
	spec.Policy = bridge.Policy(c.policy)
	spec.MemoryWaitStates = c.waitStates

	return spec
}

func runTraffic(cfg runConfig, out io.Writer) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	spec := cfg.spec()
	if err := spec.Validate(); err != nil {
		return err
	}

	engine := sim.NewSerialEngine()
	simulation := sim.NewSimulation(engine)
	system := soc.MakeBuilder().
		WithEngine(engine).
		WithSimulation(simulation).
		WithSpec(spec).
		Build("SoC")

	if cfg.eventLog != "" {
		f, err := os.Create(cfg.eventLog)
		if err != nil {
			return err
		}
		defer f.Close()

		logger := log.New(f, "", 0)
		engine.AcceptHook(sim.NewEventLogger(logger))
		system.Bridge().AcceptHook(bridge.NewTransactionLogger(logger, engine))
	}

	latency := tracing.NewAverageTimeTracer(engine, nil)
	tracing.CollectTrace(system.Bridge(), latency)

	var dbTracer *tracing.DBTracer
	if cfg.traceFile != "" {
		dbTracer = tracing.NewDBTracer(engine,
			datarecording.New(cfg.traceFile))
		tracing.CollectTrace(system.Bridge(), dbTracer)
	}

	var bar *monitoring.ProgressBar
	if cfg.monitor {
		monitor := monitoring.NewMonitor()
		if cfg.monitorPort != 0 {
			monitor.WithPortNumber(cfg.monitorPort)
		}
		monitor.RegisterSimulation(simulation)

		url := monitor.StartServer()
		if cfg.openBrowser {
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(os.Stderr, "cannot open browser: %v\n", err)
			}
		}

		bar = monitor.CreateProgressBar("Transactions", uint64(cfg.numTxns))
		defer monitor.CompleteProgressBar(bar)
	} else {
		bar = &monitoring.ProgressBar{Total: uint64(cfg.numTxns)}
	}

	system.Bridge().AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		if ctx.Pos == bridge.HookPosTransactionEnd {
			bar.MoveInProgressToFinished(1)
		}
	}))

	transfers := soc.NewTrafficGenerator(cfg.seed, spec, cfg.illegalRatio).
		Generate(cfg.numTxns)
	bar.IncrementInProgress(uint64(len(transfers)))
	system.Issue(transfers)

	if err := system.Run(); err != nil {
		return err
	}

	engine.Finished()

	if dbTracer != nil {
		dbTracer.Terminate()
	}

	if !system.Idle() {
		return fmt.Errorf("system stopped with transactions in flight")
	}

	printReport(out, system, latency)

	return nil
}

func printReport(
	out io.Writer,
	system *soc.System,
	latency *tracing.AverageTimeTracer,
) {
	stats := system.Bridge().Stats()
	period := system.Spec.Freq.Period()

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "ticks\t%d\n", system.Ticks())
	fmt.Fprintf(w, "time\t%.9f s\n", system.Engine.CurrentTime())
	fmt.Fprintf(w, "reads ok/err\t%d/%d\n", stats.ReadsOK, stats.ReadsErr)
	fmt.Fprintf(w, "writes ok/err\t%d/%d\n", stats.WritesOK, stats.WritesErr)
	fmt.Fprintf(w, "rejected reads/writes\t%d/%d\n",
		stats.ReadsRejected, stats.WritesRejected)
	fmt.Fprintf(w, "drained beats\t%d\n", stats.DrainedBeats)
	fmt.Fprintf(w, "downstream reads/writes/errors\t%d/%d/%d\n",
		stats.DownstreamReads, stats.DownstreamWrites, stats.DownstreamErrors)
	fmt.Fprintf(w, "grants read/write\t%d/%d\n",
		stats.Grants[bridge.ReadPath], stats.Grants[bridge.WritePath])

	for _, what := range []string{"read", "write", "wb_read", "wb_write"} {
		avg, count := latency.AverageTimeOf(what)
		if count == 0 {
			continue
		}

		fmt.Fprintf(w, "latency %s\t%.2f cycles (%d)\n",
			what, float64(avg/period), count)
	}

	w.Flush()
}
