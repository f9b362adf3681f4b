package config

import "errors"

// Sentinel errors returned by Load and Validate.
var (
	ErrInvalidConfig = errors.New("invalid healthrix configuration")
	ErrLoadConfig    = errors.New("cannot load healthrix configuration")
)
