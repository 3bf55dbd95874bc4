package scheduler

import (
	"context"

	"github.com/t77yq/sonde/internal/model"
)

// Generator produces the workload of a round
type Generator interface {
	Generate(count int) (model.Workload, error)
}

// Runner runs one engine for one round and returns its last reported latency
type Runner interface {
	Run(ctx context.Context, target model.EngineTarget, round model.Round) (string, error)
}

// Terminator stops every running instance of a binary
type Terminator interface {
	TerminateAll(ctx context.Context, binary string) (int, error)
}
