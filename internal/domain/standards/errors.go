package standards

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrInvalidStandard = errors.New("invalid task standard")
)
