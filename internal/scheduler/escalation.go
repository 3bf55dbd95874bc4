package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/t77yq/sonde/internal/model"
	"github.com/t77yq/sonde/internal/monitor"
)

// RoundSummary records which engines ran in a round
type RoundSummary struct {
	Number     int
	CheckCount int
	Engines    []string
}

// EscalationController doubles the workload every round until every engine's
// latency reaches half of the benchmark duration.
type EscalationController struct {
	logger     *zap.Logger
	runID      string
	engines    []model.EngineTarget
	generator  Generator
	runner     Runner
	terminator Terminator
	observer   monitor.Observer
	now        func() time.Time
	rounds     []RoundSummary
}

// NewEscalationController creates a controller running engines in the given order.
// A run identifier is generated when runID is empty.
func NewEscalationController(runID string, engines []model.EngineTarget, generator Generator, runner Runner, terminator Terminator, observer monitor.Observer, logger *zap.Logger) *EscalationController {
	if observer == nil {
		observer = monitor.Observers{}
	}

	if runID == "" {
		runID = uuid.New().String()
	}
	return &EscalationController{
		logger:     logger.Named("escalation").With(zap.String("run_id", runID)),
		runID:      runID,
		engines:    engines,
		generator:  generator,
		runner:     runner,
		terminator: terminator,
		observer:   observer,
		now:        time.Now,
	}
}

// RunID identifies this benchmark run
func (c *EscalationController) RunID() string {
	return c.runID
}

// Rounds returns the rounds executed so far
func (c *EscalationController) Rounds() []RoundSummary {
	rounds := make([]RoundSummary, len(c.rounds))
	copy(rounds, c.rounds)
	return rounds
}

// Run escalates from initialCount checks, each round lasting duration, and
// returns the final state of every engine once all of them converged.
func (c *EscalationController) Run(ctx context.Context, duration time.Duration, initialCount int) ([]model.ConvergenceState, error) {
	if len(c.engines) == 0 {
		return nil, ErrNoEngines
	}

	c.cleanup(ctx)

	timeout := duration.Seconds() / 2
	states := make([]*model.ConvergenceState, len(c.engines))
	for i, target := range c.engines {
		states[i] = &model.ConvergenceState{Engine: target.Name}
	}

	c.logger.Info("Starting escalation",
		zap.Duration("duration", duration),
		zap.Float64("timeout_seconds", timeout),
		zap.Int("initial_check_count", initialCount))

	for number, count := 1, initialCount; !converged(states); number, count = number+1, count*2 {
		if err := ctx.Err(); err != nil {
			return snapshot(states), err
		}

		w, err := c.generator.Generate(count)
		if err != nil {
			return snapshot(states), fmt.Errorf("failed to generate workload: %w", err)
		}

		startedAt := c.now()
		round := model.Round{
			Number:     number,
			CheckCount: count,
			Workload:   w,
			Duration:   duration,
			ReportName: model.ReportName(startedAt, count),
			StartedAt:  startedAt,
		}
		summary := RoundSummary{Number: number, CheckCount: count}

		c.logger.Info("Round started",
			zap.Int("round", number),
			zap.Int("check_count", count),
			zap.String("report", round.ReportName))
		c.observer.RoundStarted(round)

		for i, target := range c.engines {
			state := states[i]
			if state.Converged {
				continue
			}

			latency, err := c.runner.Run(ctx, target, round)
			if err != nil {
				return snapshot(states), fmt.Errorf("%s round %d: %w", target.Name, number, err)
			}
			summary.Engines = append(summary.Engines, target.Name)

			state.Observe(parseLatency(latency), timeout)
			c.observer.EngineFinished(round, *state)

			c.logger.Info("Engine finished round",
				zap.String("engine", target.Name),
				zap.Int("round", number),
				zap.Float64("latency", state.Latency),
				zap.String("state", string(state.State())))
		}

		c.rounds = append(c.rounds, summary)
	}

	c.logger.Info("All engines converged", zap.Int("rounds", len(c.rounds)))
	return snapshot(states), nil
}

// cleanup stops engines left over from a previous run
func (c *EscalationController) cleanup(ctx context.Context) {
	for _, target := range c.engines {
		n, err := c.terminator.TerminateAll(ctx, target.Binary)
		if err != nil {
			c.logger.Warn("Failed to stop running engine",
				zap.String("engine", target.Name),
				zap.Error(err))
			continue
		}
		if n > 0 {
			c.logger.Info("Stopped running engine",
				zap.String("binary", filepath.Base(target.Binary)),
				zap.Int("count", n))
		}
	}
}

// parseLatency converts a scraped latency. Anything unparsable counts as zero.
func parseLatency(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func converged(states []*model.ConvergenceState) bool {
	for _, s := range states {
		if !s.Converged {
			return false
		}
	}
	return true
}

func snapshot(states []*model.ConvergenceState) []model.ConvergenceState {
	out := make([]model.ConvergenceState, len(states))
	for i, s := range states {
		out[i] = *s
	}
	return out
}
