package scoring

import "fmt"

// Default formula parameters.
const (
	DefaultProductivityWeight = 0.90
	DefaultBehaviorWeight     = 0.10
	DefaultDailyTarget        = 400.0
	DefaultIdlePenaltyPerHour = 10.0
	DefaultConductPenalty     = 50.0

	maxBehaviorScore = 100.0
)

// Config holds the tunable parameters of the daily formula. It is a value:
// an Engine copies it in and never shares it.
type Config struct {
	ProductivityWeight float64 `json:"productivity_weight"`
	BehaviorWeight     float64 `json:"behavior_weight"`
	DailyTarget        float64 `json:"daily_target"`
	IdlePenaltyPerHour float64 `json:"idle_penalty_per_hour"`
	ConductPenalty     float64 `json:"conduct_penalty"`
}

// DefaultConfig returns the 90/10 configuration with a 400 point target.
func DefaultConfig() Config {
	return Config{
		ProductivityWeight: DefaultProductivityWeight,
		BehaviorWeight:     DefaultBehaviorWeight,
		DailyTarget:        DefaultDailyTarget,
		IdlePenaltyPerHour: DefaultIdlePenaltyPerHour,
		ConductPenalty:     DefaultConductPenalty,
	}
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	switch {
	case c.DailyTarget <= 0:
		return fmt.Errorf("%w: %w: %v", ErrInvalidConfig, ErrInvalidDailyTarget, c.DailyTarget)
	case c.ProductivityWeight < 0:
		return fmt.Errorf("%w: productivity weight %v", ErrInvalidConfig, c.ProductivityWeight)
	case c.BehaviorWeight < 0:
		return fmt.Errorf("%w: behavior weight %v", ErrInvalidConfig, c.BehaviorWeight)
	case c.IdlePenaltyPerHour < 0:
		return fmt.Errorf("%w: idle penalty %v", ErrInvalidConfig, c.IdlePenaltyPerHour)
	case c.ConductPenalty < 0:
		return fmt.Errorf("%w: conduct penalty %v", ErrInvalidConfig, c.ConductPenalty)
	}
	return nil
}

// WithDailyTarget returns a copy with a new target. c is never modified.
func (c Config) WithDailyTarget(target float64) (Config, error) {
	if target <= 0 {
		return c, fmt.Errorf("%w: %v", ErrInvalidDailyTarget, target)
	}
	c.DailyTarget = target
	return c, nil
}
