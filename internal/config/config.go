// Package config defines process configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/healthrix/internal/domain/aggregate"
	"github.com/okian/healthrix/internal/domain/scoring"
)

// Config contains process configuration. Keys are flat so env vars map
// one to one, e.g. HEALTHRIX_DAILY_TARGET -> daily_target.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Formula parameters.
	DailyTarget        float64 `koanf:"daily_target"`
	ProductivityWeight float64 `koanf:"productivity_weight"`
	BehaviorWeight     float64 `koanf:"behavior_weight"`
	IdlePenaltyPerHour float64 `koanf:"idle_penalty_per_hour"`
	ConductPenalty     float64 `koanf:"conduct_penalty"`

	// Reporting bands and alert limits.
	ExcellentThreshold        float64 `koanf:"excellent_threshold"`
	GoodThreshold             float64 `koanf:"good_threshold"`
	AlertPerformanceThreshold float64 `koanf:"alert_performance_threshold"`
	AlertBehaviorThreshold    float64 `koanf:"alert_behavior_threshold"`
	AlertIdleHours            float64 `koanf:"alert_idle_hours"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// SQLitePath, when set, backs the activity store with SQLite.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresURL, when set, adds a Postgres score sink.
	PostgresURL string `koanf:"postgres_url"`

	// KafkaBrokers is a comma-separated broker list. Empty disables publishing.
	KafkaBrokers string `koanf:"kafka_brokers"`
	KafkaTopic   string `koanf:"kafka_topic"`

	// MetricsTextfile, when set, receives a Prometheus text dump after each run.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// StandardsFile replaces the built-in standards with a CSV or YAML file.
	StandardsFile string `koanf:"standards_file"`
}

// New creates a Config with defaults.
func New() *Config {
	sc := scoring.DefaultConfig()
	th := aggregate.DefaultThresholds()
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		DailyTarget:               sc.DailyTarget,
		ProductivityWeight:        sc.ProductivityWeight,
		BehaviorWeight:            sc.BehaviorWeight,
		IdlePenaltyPerHour:        sc.IdlePenaltyPerHour,
		ConductPenalty:            sc.ConductPenalty,
		ExcellentThreshold:        th.Excellent,
		GoodThreshold:             th.Good,
		AlertPerformanceThreshold: th.AlertPerformance,
		AlertBehaviorThreshold:    th.AlertBehavior,
		AlertIdleHours:            th.AlertIdleHours,
		WorkerCount:               runtime.NumCPU(),
		KafkaTopic:                "healthrix.scores",
	}
}

// ScoringConfig maps the formula keys onto the engine's config.
func (c *Config) ScoringConfig() scoring.Config {
	return scoring.Config{
		ProductivityWeight: c.ProductivityWeight,
		BehaviorWeight:     c.BehaviorWeight,
		DailyTarget:        c.DailyTarget,
		IdlePenaltyPerHour: c.IdlePenaltyPerHour,
		ConductPenalty:     c.ConductPenalty,
	}
}

// Thresholds maps the reporting keys onto aggregate thresholds.
func (c *Config) Thresholds() aggregate.Thresholds {
	return aggregate.Thresholds{
		Excellent:        c.ExcellentThreshold,
		Good:             c.GoodThreshold,
		AlertPerformance: c.AlertPerformanceThreshold,
		AlertBehavior:    c.AlertBehaviorThreshold,
		AlertIdleHours:   c.AlertIdleHours,
	}
}

// Brokers splits KafkaBrokers, dropping blanks.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.ScoringConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
