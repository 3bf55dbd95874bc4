package config

import "errors"

var (
	ErrNoEngines     = errors.New("no engines configured")
	ErrInvalidConfig = errors.New("invalid configuration")
)
