package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/model"
	"github.com/t77yq/sonde/internal/monitor"
	"github.com/t77yq/sonde/internal/probe"
	"github.com/t77yq/sonde/internal/workload"
)

// Launcher controls the lifecycle of engine processes
type Launcher interface {
	Launch(binary string, args ...string) (int, error)
	WaitRunning(ctx context.Context, binary string) error
	Terminate(ctx context.Context, binary string) (bool, error)
}

// RunnerConfig defines how an engine is driven during a round
type RunnerConfig struct {
	Template workload.ServiceTemplate
	Schedule *SampleSchedule
}

// EngineRunner runs one engine against one round's workload
type EngineRunner struct {
	logger   *zap.Logger
	config   RunnerConfig
	launcher Launcher
	probe    probe.Probe
	reports  *ReportWriter
	observer monitor.Observer
	now      func() time.Time
	sleep    Sleeper
}

// NewEngineRunner creates a new engine runner
func NewEngineRunner(config RunnerConfig, launcher Launcher, p probe.Probe, reports *ReportWriter, observer monitor.Observer, logger *zap.Logger) *EngineRunner {
	if config.Schedule == nil {
		config.Schedule = EverySchedule(5 * time.Minute)
	}
	if observer == nil {
		observer = monitor.Observers{}
	}

	return &EngineRunner{
		logger:   logger.Named("engine-runner"),
		config:   config,
		launcher: launcher,
		probe:    p,
		reports:  reports,
		observer: observer,
		now:      time.Now,
		sleep:    SleepContext,
	}
}

// Run drives target through round and returns the latency of the last sample.
// Errors returned are fatal for the whole benchmark.
func (r *EngineRunner) Run(ctx context.Context, target model.EngineTarget, round model.Round) (string, error) {
	logger := r.logger.With(
		zap.String("engine", target.Name),
		zap.Int("round", round.Number),
		zap.Int("check_count", round.CheckCount))

	if err := os.WriteFile(target.ServicesFile, workload.Render(round.Workload, r.config.Template), 0644); err != nil {
		return "", fmt.Errorf("failed to write services file: %w", err)
	}

	r.resetVarDir(logger, target)

	reportPath := r.reports.Path(target.ReportDir, round)
	if err := r.reports.Prepare(target.ReportDir); err != nil {
		return "", err
	}

	if _, err := r.launcher.Launch(target.Binary, target.ConfigFile); err != nil {
		return "", err
	}
	if err := r.launcher.WaitRunning(ctx, target.Binary); err != nil {
		return "", err
	}

	logger.Info("Engine running",
		zap.String("report", reportPath),
		zap.Duration("duration", round.Duration),
		zap.Stringer("schedule", r.config.Schedule))

	// Sample times are planned from the round start, so the sample count depends
	// only on the duration and the schedule.
	start := r.now().Truncate(time.Second)
	deadline := start.Add(round.Duration)

	var latency string
	for next := start; next.Before(deadline); {
		sample := r.sample(ctx, logger, target, round.CheckCount)
		if err := r.reports.Append(reportPath, sample); err != nil {
			return "", err
		}
		r.observer.SampleTaken(target.Name, sample)
		latency = sample.Latency

		next = r.config.Schedule.Next(next)
		if err := r.sleep(ctx, next.Sub(r.now())); err != nil {
			return latency, err
		}
	}

	if _, err := r.launcher.Terminate(ctx, target.Binary); err != nil {
		logger.Warn("Failed to terminate engine", zap.Error(err))
	}

	logger.Info("Engine round completed", zap.String("latency", latency))
	return latency, nil
}

// resetVarDir recreates the engine runtime directories. Failures are ignored,
// engines create what they miss.
func (r *EngineRunner) resetVarDir(logger *zap.Logger, target model.EngineTarget) {
	if target.VarDir == "" {
		return
	}

	if err := os.RemoveAll(target.VarDir); err != nil {
		logger.Debug("Failed to remove var directory", zap.Error(err))
	}

	dirs := []string{target.VarDir}
	for _, sub := range target.VarSubdirs {
		dirs = append(dirs, filepath.Join(target.VarDir, sub))
	}
	for _, dir := range dirs {
		if err := os.Mkdir(dir, 0755); err != nil {
			logger.Debug("Failed to create var directory",
				zap.String("path", dir),
				zap.Error(err))
		}
	}
}

// sample probes the engine once. Missing signals are left empty.
func (r *EngineRunner) sample(ctx context.Context, logger *zap.Logger, target model.EngineTarget, checkCount int) model.RoundSample {
	sample := model.RoundSample{CheckCount: checkCount}

	memory, err := r.probe.Memory(ctx, target.Binary)
	logProbe(logger, "memory", err)
	sample.Memory = memory

	load, err := r.probe.LoadAverage(ctx)
	logProbe(logger, "load_average", err)
	sample.Load5 = load.Load5
	sample.Load15 = load.Load15

	latency, err := r.probe.Latency(ctx, target.StatsBinary)
	logProbe(logger, "latency", err)
	sample.Latency = latency

	sample.Timestamp = r.now()

	logger.Info("Sample taken",
		zap.String("memory", sample.Memory),
		zap.String("load5", sample.Load5),
		zap.String("load15", sample.Load15),
		zap.String("latency", sample.Latency))

	return sample
}

func logProbe(logger *zap.Logger, signal string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, probe.ErrNotFound) {
		logger.Debug("Probe found nothing", zap.String("signal", signal), zap.Error(err))
		return
	}
	logger.Warn("Probe failed", zap.String("signal", signal), zap.Error(err))
}
