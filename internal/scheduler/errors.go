package scheduler

import "errors"

var (
	// ErrNoEngines is returned when the controller has nothing to benchmark
	ErrNoEngines = errors.New("no engines configured")
)
