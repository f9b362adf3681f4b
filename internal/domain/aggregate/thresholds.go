package aggregate

import "fmt"

// Thresholds drive distribution buckets and alerting.
type Thresholds struct {
	Excellent        float64 `json:"excellent"`
	Good             float64 `json:"good"`
	AlertPerformance float64 `json:"alert_performance"`
	AlertBehavior    float64 `json:"alert_behavior"`
	AlertIdleHours   float64 `json:"alert_idle_hours"`
}

// DefaultThresholds returns the 90/70 bands and the standard alert limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Excellent:        90,
		Good:             70,
		AlertPerformance: 70,
		AlertBehavior:    5,
		AlertIdleHours:   2.0,
	}
}

// Validate checks that the bands are ordered and limits non-negative.
func (t Thresholds) Validate() error {
	if t.Good < 0 || t.Excellent <= t.Good {
		return fmt.Errorf("%w: need 0 <= good (%v) < excellent (%v)", ErrInvalidThresholds, t.Good, t.Excellent)
	}
	if t.AlertPerformance < 0 || t.AlertBehavior < 0 || t.AlertIdleHours < 0 {
		return fmt.Errorf("%w: alert limits cannot be negative", ErrInvalidThresholds)
	}
	return nil
}
