package aggregate

import "errors"

var (
	ErrInvalidLimit      = errors.New("limit must be at least 1")
	ErrInvalidThresholds = errors.New("invalid thresholds")
)
