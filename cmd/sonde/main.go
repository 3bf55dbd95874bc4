package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/config"
	"github.com/t77yq/sonde/internal/executor"
	"github.com/t77yq/sonde/internal/monitor"
	"github.com/t77yq/sonde/internal/probe"
	"github.com/t77yq/sonde/internal/scheduler"
	"github.com/t77yq/sonde/internal/workload"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s time nb_check\n", filepath.Base(os.Args[0]))
	pflag.PrintDefaults()
}

// parseArgs returns the per-round duration in seconds and the initial check count
func parseArgs(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}

	total, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("time is not a number: %w", err)
	}
	count, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("nb_check is not a number: %w", err)
	}

	return total, count, nil
}

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML configuration file")
	pflag.Usage = usage
	pflag.Parse()

	total, count, err := parseArgs(pflag.Args())
	if err != nil {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := cfg.Log.Build()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	runID := uuid.NewString()

	// The run is only ever stopped by killing the process, like the engines it drives.
	ctx := context.Background()

	observers := monitor.Observers{}

	if cfg.Metrics.Listen != "" {
		registry := prometheus.NewRegistry()
		observers = append(observers, monitor.NewMetrics(registry))
		monitor.ServeMetrics(ctx, cfg.Metrics.Listen, registry, logger)
	}

	if cfg.NATS.URL != "" {
		nc, err := monitor.Connect(cfg.NATS.URL, cfg.NATS.Name, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Close()

		logger.Info("Connected to NATS successfully",
			zap.String("url", nc.ConnectedUrl()))
		observers = append(observers, monitor.NewNotifier(nc, cfg.NATS.SubjectPrefix, runID, logger))
	}

	schedule, err := executor.NewSampleSchedule(cfg.Sampling.Schedule)
	if err != nil {
		logger.Fatal("Failed to parse sample schedule", zap.Error(err))
	}

	processes := executor.NewProcessManager(probe.NewProcessTable(), cfg.Sampling.Settle, logger)
	systemProbe := probe.NewSystemProbe(cfg.Probe.SystemConfig(),
		probe.ExecRunner{Timeout: cfg.Probe.CommandTimeout}, logger)

	runner := executor.NewEngineRunner(executor.RunnerConfig{
		Template: cfg.Workload.ServiceTemplate(),
		Schedule: schedule,
	}, processes, systemProbe, executor.NewReportWriter(logger), observers, logger)

	generator := workload.NewGenerator(rand.NewSource(time.Now().UnixNano()))
	controller := scheduler.NewEscalationController(runID, cfg.Engines, generator, runner, processes, observers, logger)

	logger.Info("Benchmark starting",
		zap.String("run_id", controller.RunID()),
		zap.Int("time", total),
		zap.Int("nb_check", count),
		zap.String("sample_schedule", schedule.String()))

	states, err := controller.Run(ctx, time.Duration(total)*time.Second, count)
	if pids := processes.Running(); len(pids) > 0 {
		logger.Warn("Launched engines still running", zap.Ints("pids", pids))
	}
	if err != nil {
		logger.Fatal("Benchmark failed", zap.Error(err))
	}

	for _, state := range states {
		logger.Info("Engine converged",
			zap.String("engine", state.Engine),
			zap.Float64("latency", state.Latency))
	}
}
