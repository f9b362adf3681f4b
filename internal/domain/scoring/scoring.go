// Package scoring computes daily performance scores from logged activity.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/logger"
	"github.com/okian/healthrix/pkg/metrics"
)

// Source is the read side of the activity store the engine needs.
type Source interface {
	Employee(ctx context.Context, id string) (model.Employee, bool, error)
	DailyMetric(ctx context.Context, employeeID, date string) (model.DailyMetric, bool, error)
	ForEmployee(ctx context.Context, employeeID, start, end string) ([]model.ActivityEntry, error)
	ForEmployeeOnDate(ctx context.Context, employeeID, date string) ([]model.ActivityEntry, error)
	ForDate(ctx context.Context, date string) ([]model.ActivityEntry, error)
	ForDateRange(ctx context.Context, start, end string) ([]model.ActivityEntry, error)
}

// DateRange holds per-day scores for a range of dates, dates ascending.
type DateRange struct {
	Dates  []string
	Scores map[string][]model.PerformanceScore
}

// Engine scores employees against the task standards.
type Engine struct {
	std Standards
	src Source
	log logger.Logger

	mu  sync.RWMutex
	cfg Config
}

// NewEngine builds an engine over a standards registry and an activity source.
func NewEngine(std Standards, src Source, opts ...Option) (*Engine, error) {
	if std == nil || src == nil {
		return nil, fmt.Errorf("%w: standards and source are required", ErrInvalidConfig)
	}
	e := &Engine{
		std: std,
		src: src,
		log: logger.Nop(),
		cfg: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetDailyTarget replaces the daily point target. A non-positive target is
// rejected and the previous configuration stays in effect.
func (e *Engine) SetDailyTarget(target float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg, err := e.cfg.WithDailyTarget(target)
	if err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

// Calculate scores already-selected rows for one employee and one day.
// It returns false when there are no rows.
func (e *Engine) Calculate(entries []model.ActivityEntry, employee model.Employee) (model.PerformanceScore, bool) {
	return compute(e.std, e.Config(), entries, employee.Name, nil)
}

// CalculateEmployee scores one employee for one day.
func (e *Engine) CalculateEmployee(ctx context.Context, employeeID, date string) (model.PerformanceScore, bool, error) {
	start := time.Now()
	entries, err := e.src.ForEmployeeOnDate(ctx, employeeID, date)
	if err != nil {
		return model.PerformanceScore{}, false, fmt.Errorf("load activities for %s on %s: %w", employeeID, date, err)
	}
	score, ok, err := e.scoreGroup(ctx, e.Config(), entries)
	if err != nil {
		return model.PerformanceScore{}, false, err
	}
	metrics.RecordCalculationLatency(float64(time.Since(start).Microseconds()) / 1000)
	return score, ok, nil
}

// CalculateAll scores every employee with activity on date, best first.
// Equal scores keep the order in which employees first appear in the log.
func (e *Engine) CalculateAll(ctx context.Context, date string) ([]model.PerformanceScore, error) {
	start := time.Now()
	entries, err := e.src.ForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load activities for %s: %w", date, err)
	}
	scores, err := e.scoreDay(ctx, e.Config(), entries)
	if err != nil {
		return nil, err
	}
	SortByFinal(scores)

	metrics.UpdateEmployeesScored(len(scores))
	metrics.RecordCalculationLatency(float64(time.Since(start).Microseconds()) / 1000)
	e.log.Info(ctx, "scored day",
		logger.String("date", date),
		logger.Int("employees", len(scores)),
	)
	return scores, nil
}

// CalculateDateRange scores every date in [start, end] that has activity.
func (e *Engine) CalculateDateRange(ctx context.Context, start, end string) (DateRange, error) {
	if err := checkRange(start, end); err != nil {
		return DateRange{}, err
	}
	entries, err := e.src.ForDateRange(ctx, start, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("load activities %s..%s: %w", start, end, err)
	}

	cfg := e.Config()
	dates, byDate := groupBy(entries, func(a *model.ActivityEntry) string { return a.Date })
	sort.Strings(dates)

	out := DateRange{Dates: dates, Scores: make(map[string][]model.PerformanceScore, len(dates))}
	for _, d := range dates {
		scores, err := e.scoreDay(ctx, cfg, byDate[d])
		if err != nil {
			return DateRange{}, err
		}
		SortByFinal(scores)
		out.Scores[d] = scores
	}
	return out, nil
}

// EmployeeTrend returns one employee's daily scores in date order. Days
// without activity are skipped.
func (e *Engine) EmployeeTrend(ctx context.Context, employeeID, start, end string) ([]model.PerformanceScore, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	entries, err := e.src.ForEmployee(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load activities for %s: %w", employeeID, err)
	}

	cfg := e.Config()
	dates, byDate := groupBy(entries, func(a *model.ActivityEntry) string { return a.Date })
	sort.Strings(dates)

	trend := make([]model.PerformanceScore, 0, len(dates))
	for _, d := range dates {
		score, ok, err := e.scoreGroup(ctx, cfg, byDate[d])
		if err != nil {
			return nil, err
		}
		if ok {
			trend = append(trend, score)
		}
	}
	return trend, nil
}

// SortByFinal orders scores by final performance, highest first. The sort
// is stable.
func SortByFinal(scores []model.PerformanceScore) {
	slices.SortStableFunc(scores, func(a, b model.PerformanceScore) int {
		switch {
		case a.FinalPerformance > b.FinalPerformance:
			return -1
		case a.FinalPerformance < b.FinalPerformance:
			return 1
		}
		return 0
	})
}

// scoreDay scores a single day's rows, one score per employee in first-seen order.
func (e *Engine) scoreDay(ctx context.Context, cfg Config, entries []model.ActivityEntry) ([]model.PerformanceScore, error) {
	ids, byEmployee := groupBy(entries, func(a *model.ActivityEntry) string { return a.EmployeeID })
	scores := make([]model.PerformanceScore, 0, len(ids))
	for _, id := range ids {
		score, ok, err := e.scoreGroup(ctx, cfg, byEmployee[id])
		if err != nil {
			return nil, err
		}
		if ok {
			scores = append(scores, score)
		}
	}
	return scores, nil
}

// scoreGroup scores rows that share one employee and one date.
func (e *Engine) scoreGroup(ctx context.Context, cfg Config, entries []model.ActivityEntry) (model.PerformanceScore, bool, error) {
	if len(entries) == 0 {
		metrics.RecordNoScore()
		return model.PerformanceScore{}, false, nil
	}
	id, date := entries[0].EmployeeID, entries[0].Date

	emp, _, err := e.src.Employee(ctx, id)
	if err != nil {
		return model.PerformanceScore{}, false, fmt.Errorf("lookup employee %s: %w", id, err)
	}

	var metric *model.DailyMetric
	m, found, err := e.src.DailyMetric(ctx, id, date)
	if err != nil {
		return model.PerformanceScore{}, false, fmt.Errorf("lookup daily metric for %s on %s: %w", id, date, err)
	}
	if found {
		metric = &m
	}

	score, ok := compute(e.std, cfg, entries, emp.Name, metric)
	if ok {
		metrics.RecordScoreComputed(score.FinalPerformance)
		e.log.Debug(ctx, "score computed",
			logger.String("emp_id", id),
			logger.String("date", date),
			logger.Float64("final", score.FinalPerformance),
			logger.Bool("daily_metric", found),
		)
	}
	return score, ok, nil
}

func groupBy(entries []model.ActivityEntry, key func(*model.ActivityEntry) string) ([]string, map[string][]model.ActivityEntry) {
	var order []string
	groups := make(map[string][]model.ActivityEntry)
	for i := range entries {
		k := key(&entries[i])
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], entries[i])
	}
	return order, groups
}

func checkRange(start, end string) error {
	for _, d := range []string{start, end} {
		if d != "" && !model.ValidDate(d) {
			return &model.ValidationError{Field: "date", Value: d, Reason: "expected YYYY-MM-DD"}
		}
	}
	if start != "" && end != "" && start > end {
		return fmt.Errorf("%w: %s after %s", ErrInvalidRange, start, end)
	}
	return nil
}

// IsInputError reports whether err came from caller input rather than storage.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDailyTarget) ||
		errors.Is(err, model.ErrValidation)
}
