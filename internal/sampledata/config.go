package sampledata

import (
	"errors"
	"fmt"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/logger"
)

// ErrInvalidConfig is wrapped by Config.Validate failures.
var ErrInvalidConfig = errors.New("invalid sample config")

// Config holds configuration for a generated dataset.
type Config struct {
	Employees    int           // Number of employees
	Days         int           // Number of working days
	Start        string        // First date, YYYY-MM-DD
	Seed         uint64        // Same seed, same dataset
	SkipWeekends bool          // Skip Saturdays and Sundays
	DailyTarget  float64       // Points an average day is sized against
	Logger       logger.Logger // Optional
}

// DefaultConfig returns a one-week dataset for ten employees.
func DefaultConfig() Config {
	return Config{
		Employees:    10,
		Days:         5,
		Start:        "2025-11-03",
		Seed:         1,
		SkipWeekends: true,
		DailyTarget:  400,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Employees < 1:
		return fmt.Errorf("%w: employees must be positive, got %d", ErrInvalidConfig, c.Employees)
	case c.Days < 1:
		return fmt.Errorf("%w: days must be positive, got %d", ErrInvalidConfig, c.Days)
	case !model.ValidDate(c.Start):
		return fmt.Errorf("%w: start %q is not YYYY-MM-DD", ErrInvalidConfig, c.Start)
	case c.DailyTarget <= 0:
		return fmt.Errorf("%w: daily target must be positive, got %v", ErrInvalidConfig, c.DailyTarget)
	}
	return nil
}

// Dataset is a generated employee registry and activity log.
type Dataset struct {
	Employees  []model.Employee
	Activities []model.ActivityEntry
	Dates      []string
}
