// ============================================================================
// llrt demo CLI
// ============================================================================
//
// Package: cmd/demo
// Purpose: Drives a toy integrate-and-fire neuron network through
// llrt's scheduler, as a runnable demonstration of the scheduler,
// link, and performance-log packages working together.
//
// Command Structure:
//   llrt-demo                   # Root command
//   ├── run                     # Run the network for N timesteps
//   │   └── --config, -c        # Specify config file
//   │   └── --neurons           # Population size
//   │   └── --iters             # Number of timesteps
//   ├── bench                   # Compare deterministic vs adaptive timing
//   │   └── --workers           # Worker counts to compare
//   ├── trace                   # Run with profiling enabled
//   │   └── --out, -o           # Trace output path
//   └── --version                # Display version information
//
// run/trace Command:
//   1. Load config file
//   2. Start the metrics HTTP server (if enabled)
//   3. Build and start the Scheduler
//   4. Initialize dendrite weights and run the network
//   5. Dump the performance trace (if enabled) and stop the scheduler
//
// Signal Handling:
//   run and trace capture SIGINT/SIGTERM and stop after the current
//   timestep finishes, still dumping the trace and stopping the
//   scheduler gracefully.
// ============================================================================

package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChuLiYu/llrt/internal/config"
	"github.com/ChuLiYu/llrt/internal/metrics"
	"github.com/ChuLiYu/llrt/internal/perflog"
	"github.com/ChuLiYu/llrt/internal/scheduler"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	if err := buildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "llrt-demo",
		Short:   "llrt demo: a scheduler-driven integrate-and-fire neuron network",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")
	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildBenchCommand())
	rootCmd.AddCommand(buildTraceCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	var neurons int64
	var iters int64
	var seed int64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the neuron network for a number of timesteps",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			_, err := runScenario(cfg, neurons, iters, seed)
			return err
		},
	}

	cmd.Flags().Int64Var(&neurons, "neurons", 500, "population size")
	cmd.Flags().Int64Var(&iters, "iters", 2000, "number of timesteps")
	cmd.Flags().Int64Var(&seed, "seed", 136, "random seed")

	return cmd
}

func buildTraceCommand() *cobra.Command {
	var neurons int64
	var iters int64
	var seed int64
	var out string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Run the network with profiling enabled and write a Chrome trace",
		Long:  "Runs exactly like run, but forces perf logging on and writes the resulting Chrome Trace Event JSON to --out (or the config file's perf.trace_file).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			cfg.Perf.Enabled = true
			if out != "" {
				cfg.Perf.TraceFile = out
			}
			_, err := runScenario(cfg, neurons, iters, seed)
			return err
		},
	}

	cmd.Flags().Int64Var(&neurons, "neurons", 500, "population size")
	cmd.Flags().Int64Var(&iters, "iters", 2000, "number of timesteps")
	cmd.Flags().Int64Var(&seed, "seed", 136, "random seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "trace output path (overrides the config file's perf.trace_file)")

	return cmd
}

func buildBenchCommand() *cobra.Command {
	var neurons int64
	var iters int64
	var seed int64
	var workerCounts []int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare deterministic vs adaptive timing across worker counts",
		Long:  "Runs the same scenario once per worker count in --workers, in both deterministic and adaptive timing modes, and logs the elapsed time for each combination.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadDemoConfig()
			return runBench(cfg, neurons, iters, seed, workerCounts)
		},
	}

	cmd.Flags().Int64Var(&neurons, "neurons", 200, "population size")
	cmd.Flags().Int64Var(&iters, "iters", 500, "number of timesteps")
	cmd.Flags().Int64Var(&seed, "seed", 136, "random seed")
	cmd.Flags().IntSliceVar(&workerCounts, "workers", []int{0, 1, 2, 4, 8}, "worker counts to compare")

	return cmd
}

func loadDemoConfig() *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		slog.Warn("failed to load config file, using defaults", "path", configFile, "error", err)
		cfg = config.Default()
	}
	return cfg
}

// runScenario builds the scheduler and metrics/perf wiring from cfg,
// runs the integrate-and-fire network for iters timesteps, and
// returns how long the run took. A SIGINT/SIGTERM during the run
// requests an early, graceful stop: the in-flight timestep finishes,
// the trace (if enabled) is still dumped, and the scheduler still
// shuts down cleanly, mirroring the teacher's run command's shutdown
// sequence.
func runScenario(cfg *config.Config, neurons, iters, seed int64) (time.Duration, error) {
	log := slog.Default().With("component", "demo")

	var col *metrics.Collector
	if cfg.Metrics.Enabled {
		col = metrics.NewCollector()
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	perf := perflog.New(cfg.Perf.Enabled)

	sched := scheduler.New(scheduler.Config{
		Workers:               cfg.Scheduler.WorkerCount,
		Deterministic:         cfg.Scheduler.Deterministic,
		SingleThreadThreshold: cfg.Scheduler.SingleThreadThreshold,
		Metrics:               col,
		Perf:                  perf,
		Log:                   log,
	})
	if err := sched.Start(); err != nil {
		return 0, fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	net := newIFNetwork(neurons, seed)
	net.initWeights(sched)

	log.Info("running network", "neurons", neurons, "iters", iters, "workers", cfg.Scheduler.WorkerCount)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	inputRng := rand.New(rand.NewSource(seed))
	inputs := make([]float32, neurons)

	start := time.Now()
simLoop:
	for t := int64(0); t < iters; t++ {
		for i := range inputs {
			inputs[i] = float32(inputRng.NormFloat64())
		}
		net.advance(sched, t, inputs)

		select {
		case <-sigChan:
			log.Info("received shutdown signal, stopping early", "completed_timesteps", t+1, "requested_timesteps", iters)
			break simLoop
		default:
		}
	}
	elapsed := time.Since(start)

	log.Info("finished", "elapsed", elapsed.String())

	if cfg.Perf.Enabled {
		f, err := os.Create(cfg.Perf.TraceFile)
		if err != nil {
			return elapsed, fmt.Errorf("failed to create trace file: %w", err)
		}
		defer f.Close()
		if err := perf.Dump(f); err != nil {
			return elapsed, fmt.Errorf("failed to dump trace: %w", err)
		}
		log.Info("wrote trace", "path", cfg.Perf.TraceFile)
	}

	return elapsed, nil
}

// runBench runs the same scenario once per worker count in
// workerCounts, in both deterministic and adaptive timing modes, and
// logs the elapsed time for each combination. Metrics and perf
// logging are forced off so repeated runs don't fight over a port or
// pile up trace files.
func runBench(cfg *config.Config, neurons, iters, seed int64, workerCounts []int) error {
	log := slog.Default().With("component", "demo-bench")

	for _, workers := range workerCounts {
		for _, deterministic := range []bool{true, false} {
			runCfg := *cfg
			runCfg.Scheduler.WorkerCount = workers
			runCfg.Scheduler.Deterministic = deterministic
			runCfg.Metrics.Enabled = false
			runCfg.Perf.Enabled = false

			elapsed, err := runScenario(&runCfg, neurons, iters, seed)
			if err != nil {
				return fmt.Errorf("bench workers=%d deterministic=%v: %w", workers, deterministic, err)
			}
			log.Info("bench result", "workers", workers, "deterministic", deterministic, "elapsed", elapsed.String())
		}
	}
	return nil
}
