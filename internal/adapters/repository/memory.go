package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/metrics"
)

// MemoryStore implements ActivityStore in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   []model.ActivityEntry
	employees map[string]model.Employee
	empOrder  []string
	daily     map[dayKey]model.DailyMetric

	capacityHint int
}

type dayKey struct {
	employeeID string
	date       string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		employees: make(map[string]model.Employee),
		daily:     make(map[dayKey]model.DailyMetric),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = make([]model.ActivityEntry, 0, s.capacityHint)
	return s
}

// Add appends one validated entry.
func (s *MemoryStore) Add(_ context.Context, e model.ActivityEntry) error {
	if err := checkEntry(e); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	metrics.RecordActivitiesImported(1)
	return nil
}

// AddMany appends all entries or none.
func (s *MemoryStore) AddMany(_ context.Context, entries []model.ActivityEntry) error {
	for _, e := range entries {
		if err := checkEntry(e); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.entries = append(s.entries, entries...)
	s.mu.Unlock()
	metrics.RecordActivitiesImported(len(entries))
	return nil
}

// ReplaceDates swaps out the days covered by entries.
func (s *MemoryStore) ReplaceDates(_ context.Context, entries []model.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}
	dates := make(map[string]struct{})
	for _, e := range entries {
		if err := checkEntry(e); err != nil {
			return err
		}
		dates[e.Date] = struct{}{}
	}

	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if _, replaced := dates[e.Date]; !replaced {
			kept = append(kept, e)
		}
	}
	s.entries = append(kept, entries...)
	s.mu.Unlock()
	metrics.RecordActivitiesImported(len(entries))
	return nil
}

// RegisterEmployee upserts by ID.
func (s *MemoryStore) RegisterEmployee(_ context.Context, emp model.Employee) error {
	if err := validateEmployee(emp); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[emp.ID]; !ok {
		s.empOrder = append(s.empOrder, emp.ID)
	}
	s.employees[emp.ID] = emp
	return nil
}

// RecordDailyMetric upserts the behavioural record for an employee-day.
func (s *MemoryStore) RecordDailyMetric(_ context.Context, m model.DailyMetric) error {
	if err := m.Validate(); err != nil {
		recordValidation(err)
		return err
	}
	s.mu.Lock()
	s.daily[dayKey{m.EmployeeID, m.Date}] = m
	s.mu.Unlock()
	return nil
}

// Employee looks up a registered employee.
func (s *MemoryStore) Employee(_ context.Context, id string) (model.Employee, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.employees[id]
	return emp, ok, nil
}

// Employees returns every registered employee in registration order.
func (s *MemoryStore) Employees(_ context.Context) ([]model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Employee, 0, len(s.empOrder))
	for _, id := range s.empOrder {
		out = append(out, s.employees[id])
	}
	return out, nil
}

// DailyMetric returns the behavioural record for an employee-day, if any.
func (s *MemoryStore) DailyMetric(_ context.Context, employeeID, date string) (model.DailyMetric, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.daily[dayKey{employeeID, date}]
	return m, ok, nil
}

// ForEmployee filters by employee within an inclusive, optionally open range.
func (s *MemoryStore) ForEmployee(_ context.Context, employeeID, start, end string) ([]model.ActivityEntry, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.filter(func(e *model.ActivityEntry) bool {
		return e.EmployeeID == employeeID && inRange(e.Date, start, end)
	}), nil
}

// ForEmployeeOnDate returns one employee's rows for a day.
func (s *MemoryStore) ForEmployeeOnDate(_ context.Context, employeeID, date string) ([]model.ActivityEntry, error) {
	return s.filter(func(e *model.ActivityEntry) bool {
		return e.EmployeeID == employeeID && e.Date == date
	}), nil
}

// ForDate returns every row logged on date.
func (s *MemoryStore) ForDate(_ context.Context, date string) ([]model.ActivityEntry, error) {
	return s.filter(func(e *model.ActivityEntry) bool { return e.Date == date }), nil
}

// ForDateRange returns every row with start <= date <= end.
func (s *MemoryStore) ForDateRange(_ context.Context, start, end string) ([]model.ActivityEntry, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	return s.filter(func(e *model.ActivityEntry) bool { return inRange(e.Date, start, end) }), nil
}

// ForTask returns every row for a task name.
func (s *MemoryStore) ForTask(_ context.Context, taskName string) ([]model.ActivityEntry, error) {
	return s.filter(func(e *model.ActivityEntry) bool { return e.TaskName == taskName }), nil
}

// DateSpan returns the earliest and latest logged dates.
func (s *MemoryStore) DateSpan(_ context.Context) (string, string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return "", "", false, nil
	}
	minDate, maxDate := s.entries[0].Date, s.entries[0].Date
	for _, e := range s.entries[1:] {
		if e.Date < minDate {
			minDate = e.Date
		}
		if e.Date > maxDate {
			maxDate = e.Date
		}
	}
	return minDate, maxDate, true, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Clear drops every entry and daily metric.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
	s.daily = make(map[dayKey]model.DailyMetric)
	return nil
}

// filter copies matching entries so callers never alias the log.
func (s *MemoryStore) filter(keep func(*model.ActivityEntry) bool) []model.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.ActivityEntry
	for i := range s.entries {
		if keep(&s.entries[i]) {
			out = append(out, s.entries[i])
		}
	}
	return out
}

func inRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

func checkEntry(e model.ActivityEntry) error {
	if err := e.Validate(); err != nil {
		recordValidation(err)
		return err
	}
	return nil
}

func recordValidation(err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		metrics.RecordValidationError(verr.Field)
	}
}
