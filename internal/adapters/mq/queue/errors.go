package queue

import "errors"

// ErrQueueFull is reported when a scoring batch has more jobs than the
// queue can hold.
var ErrQueueFull = errors.New("scoring queue full")
