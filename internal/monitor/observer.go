package monitor

import (
	"github.com/t77yq/sonde/internal/model"
)

// Observer receives benchmark progress. Implementations must not block for long;
// they run on the controller goroutine between probes.
type Observer interface {
	RoundStarted(round model.Round)
	SampleTaken(engine string, sample model.RoundSample)
	EngineFinished(round model.Round, state model.ConvergenceState)
}

// Observers fans progress out to every observer in order
type Observers []Observer

func (o Observers) RoundStarted(round model.Round) {
	for _, obs := range o {
		obs.RoundStarted(round)
	}
}

func (o Observers) SampleTaken(engine string, sample model.RoundSample) {
	for _, obs := range o {
		obs.SampleTaken(engine, sample)
	}
}

func (o Observers) EngineFinished(round model.Round, state model.ConvergenceState) {
	for _, obs := range o {
		obs.EngineFinished(round, state)
	}
}
