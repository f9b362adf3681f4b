package scoring

import "errors"

var (
	ErrInvalidConfig      = errors.New("invalid scoring config")
	ErrInvalidDailyTarget = errors.New("daily target must be positive")
	ErrInvalidRange       = errors.New("invalid date range")
)
