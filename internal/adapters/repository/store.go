// Package repository holds the activity store and score sinks.
package repository

import (
	"context"

	"github.com/okian/healthrix/internal/domain/model"
)

// ActivityStore is an append-only log of activity entries plus the
// employee registry they reference. Every read returns entries in
// insertion order.
type ActivityStore interface {
	// Add appends one entry after re-validating it.
	Add(ctx context.Context, e model.ActivityEntry) error
	// AddMany appends entries atomically: one invalid entry rejects the batch.
	AddMany(ctx context.Context, entries []model.ActivityEntry) error
	// ReplaceDates atomically drops every entry logged on a date that
	// appears in entries, then appends entries. Reloading the same sheet
	// leaves the log unchanged.
	ReplaceDates(ctx context.Context, entries []model.ActivityEntry) error
	// RegisterEmployee upserts by employee ID.
	RegisterEmployee(ctx context.Context, emp model.Employee) error
	// RecordDailyMetric upserts the behavioural record for an employee-day.
	RecordDailyMetric(ctx context.Context, m model.DailyMetric) error

	Employee(ctx context.Context, id string) (model.Employee, bool, error)
	Employees(ctx context.Context) ([]model.Employee, error)
	DailyMetric(ctx context.Context, employeeID, date string) (model.DailyMetric, bool, error)

	// ForEmployee filters by employee and an inclusive date range; an empty
	// bound is open on that side.
	ForEmployee(ctx context.Context, employeeID, start, end string) ([]model.ActivityEntry, error)
	ForEmployeeOnDate(ctx context.Context, employeeID, date string) ([]model.ActivityEntry, error)
	ForDate(ctx context.Context, date string) ([]model.ActivityEntry, error)
	// ForDateRange returns every entry with start <= date <= end.
	ForDateRange(ctx context.Context, start, end string) ([]model.ActivityEntry, error)
	ForTask(ctx context.Context, taskName string) ([]model.ActivityEntry, error)

	// DateSpan returns the earliest and latest logged dates; ok is false
	// when the store is empty.
	DateSpan(ctx context.Context) (minDate, maxDate string, ok bool, err error)
	Len(ctx context.Context) (int, error)
	// Clear drops every activity entry and daily metric. Employees are kept.
	Clear(ctx context.Context) error
}

// ScoreSink receives computed scores after a batch finishes.
type ScoreSink interface {
	SaveScores(ctx context.Context, scores []model.PerformanceScore) error
}

func validateRange(start, end string) error {
	if start != "" && !model.ValidDate(start) {
		return &model.ValidationError{Field: "start", Value: start, Reason: "expected YYYY-MM-DD"}
	}
	if end != "" && !model.ValidDate(end) {
		return &model.ValidationError{Field: "end", Value: end, Reason: "expected YYYY-MM-DD"}
	}
	if start != "" && end != "" && start > end {
		return ErrInvalidRange
	}
	return nil
}

func validateEmployee(emp model.Employee) error {
	if emp.ID == "" {
		return &model.ValidationError{Field: "emp_id", Value: emp.ID, Reason: "cannot be empty"}
	}
	return nil
}
