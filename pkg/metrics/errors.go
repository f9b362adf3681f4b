package metrics

import "errors"

// ErrTextfile is returned when the metrics textfile cannot be written.
var ErrTextfile = errors.New("write metrics textfile")
