package executor

import "errors"

var (
	// ErrEngineNotRunning is returned when a launched engine is absent from the process table
	ErrEngineNotRunning = errors.New("engine not running")
)
