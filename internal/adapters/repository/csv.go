package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/metrics"
)

// ActivityCSVHeader is the column layout of activity sheets.
var ActivityCSVHeader = []string{
	"Date", "Emp_ID", "Name", "Task", "Count", "Patient_ID",
	"Duration_Minutes", "Idle_Hours", "Conduct_Flag", "Notes",
}

// EmployeeCSVHeader is the column layout of employee sheets.
var EmployeeCSVHeader = []string{"Emp_ID", "Name", "Department", "Role"}

// sheet indexes a CSV header so rows can be read by column name.
type sheet struct {
	cols map[string]int
}

func readSheet(r *csv.Reader, required ...string) (sheet, error) {
	header, err := r.Read()
	if err != nil {
		return sheet{}, fmt.Errorf("read header: %w", err)
	}
	s := sheet{cols: make(map[string]int, len(header))}
	for i, h := range header {
		s.cols[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := s.cols[col]; !ok {
			return sheet{}, fmt.Errorf("missing column %q", col)
		}
	}
	return s, nil
}

func (s sheet) get(row []string, col string) string {
	i, ok := s.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadEmployeesCSV registers every employee in an Emp_ID,Name,Department,Role sheet.
func LoadEmployeesCSV(ctx context.Context, r io.Reader, store ActivityStore) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	s, err := readSheet(cr, "Emp_ID", "Name")
	if err != nil {
		metrics.RecordImportError("employees")
		return 0, fmt.Errorf("employees sheet: %w", err)
	}

	importErr := &ImportError{Source: "employees"}
	loaded := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
			continue
		}
		emp := model.Employee{
			ID:         s.get(row, "Emp_ID"),
			Name:       s.get(row, "Name"),
			Department: s.get(row, "Department"),
			Role:       s.get(row, "Role"),
		}
		if err := store.RegisterEmployee(ctx, emp); err != nil {
			importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
			continue
		}
		loaded++
	}
	return loaded, finishImport(importErr)
}

// LoadDailyMetricsCSV records one behavioural row per employee-day from a
// Date,Emp_ID,Idle_Hours,Conduct_Flag,Conduct_Notes,Supervisor sheet.
// A recorded metric replaces the per-row idle hours and conduct flag for
// that day.
func LoadDailyMetricsCSV(ctx context.Context, r io.Reader, store ActivityStore) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	s, err := readSheet(cr, "Date", "Emp_ID")
	if err != nil {
		metrics.RecordImportError("daily_metrics")
		return 0, fmt.Errorf("daily metrics sheet: %w", err)
	}

	importErr := &ImportError{Source: "daily_metrics"}
	loaded := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
			continue
		}

		m := model.DailyMetric{
			EmployeeID:   s.get(row, "Emp_ID"),
			Date:         s.get(row, "Date"),
			ConductNotes: s.get(row, "Conduct_Notes"),
			Supervisor:   s.get(row, "Supervisor"),
		}
		if v := s.get(row, "Idle_Hours"); v != "" {
			if m.IdleHours, err = strconv.ParseFloat(v, 64); err != nil {
				err = &model.ValidationError{Field: "idle_hours", Value: v, Reason: "not a number"}
			}
		}
		if v := s.get(row, "Conduct_Flag"); v != "" && err == nil {
			if m.ConductFlag, err = strconv.Atoi(v); err != nil {
				err = &model.ValidationError{Field: "conduct_flag", Value: v, Reason: "not an integer"}
			}
		}
		if err != nil {
			recordValidation(err)
		} else {
			err = store.RecordDailyMetric(ctx, m)
		}
		if err != nil {
			importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
			continue
		}
		loaded++
	}
	return loaded, finishImport(importErr)
}

// LoadActivitiesCSV appends every valid row of an activity sheet. Rows
// naming an unregistered employee register it with the row's Name. Bad
// rows are skipped and reported together in an *ImportError.
func LoadActivitiesCSV(ctx context.Context, r io.Reader, store ActivityStore) (int, error) {
	return loadActivities(ctx, r, store, store.AddMany)
}

// ReplaceActivitiesCSV loads a sheet like LoadActivitiesCSV but replaces
// every day the sheet covers, so importing the same sheet twice into a
// persistent store does not double it.
func ReplaceActivitiesCSV(ctx context.Context, r io.Reader, store ActivityStore) (int, error) {
	return loadActivities(ctx, r, store, store.ReplaceDates)
}

func loadActivities(ctx context.Context, r io.Reader, store ActivityStore,
	write func(context.Context, []model.ActivityEntry) error,
) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	s, err := readSheet(cr, "Date", "Emp_ID", "Task")
	if err != nil {
		metrics.RecordImportError("activities")
		return 0, fmt.Errorf("activities sheet: %w", err)
	}

	importErr := &ImportError{Source: "activities"}
	var batch []model.ActivityEntry
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
			continue
		}

		entry, err := parseActivityRow(s, row)
		if err != nil {
			recordValidation(err)
			importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
			continue
		}

		_, known, err := store.Employee(ctx, entry.EmployeeID)
		if err != nil {
			return 0, err
		}
		if !known {
			name := s.get(row, "Name")
			if name == "" {
				name = model.UnknownEmployeeName
			}
			if err := store.RegisterEmployee(ctx, model.Employee{ID: entry.EmployeeID, Name: name}); err != nil {
				importErr.Rows = append(importErr.Rows, RowError{Line: line, Err: err})
				continue
			}
		}
		batch = append(batch, entry)
	}

	if len(batch) > 0 {
		if err := write(ctx, batch); err != nil {
			return 0, fmt.Errorf("store activities: %w", err)
		}
	}
	return len(batch), finishImport(importErr)
}

func parseActivityRow(s sheet, row []string) (model.ActivityEntry, error) {
	if s.get(row, "Emp_ID") == "" {
		return model.ActivityEntry{}, &model.ValidationError{Field: "emp_id", Value: "", Reason: "cannot be empty"}
	}
	opts := []model.EntryOption{
		model.WithPatient(s.get(row, "Patient_ID")),
		model.WithNotes(s.get(row, "Notes")),
	}

	if v := s.get(row, "Count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.ActivityEntry{}, &model.ValidationError{Field: "count", Value: v, Reason: "not an integer"}
		}
		opts = append(opts, model.WithCount(n))
	}
	if v := s.get(row, "Duration_Minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.ActivityEntry{}, &model.ValidationError{Field: "duration_minutes", Value: v, Reason: "not an integer"}
		}
		opts = append(opts, model.WithDuration(n))
	}
	if v := s.get(row, "Idle_Hours"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return model.ActivityEntry{}, &model.ValidationError{Field: "idle_hours", Value: v, Reason: "not a number"}
		}
		opts = append(opts, model.WithIdleHours(h))
	}
	if v := s.get(row, "Conduct_Flag"); v != "" {
		f, err := strconv.Atoi(v)
		if err != nil {
			return model.ActivityEntry{}, &model.ValidationError{Field: "conduct_flag", Value: v, Reason: "not an integer"}
		}
		opts = append(opts, model.WithConductFlag(f))
	}

	return model.NewActivityEntry(s.get(row, "Date"), s.get(row, "Emp_ID"), s.get(row, "Task"), opts...)
}

func finishImport(e *ImportError) error {
	if len(e.Rows) == 0 {
		return nil
	}
	metrics.RecordImportError(e.Source)
	return e
}

// WriteActivitiesCSV exports the full log with resolved employee names.
func WriteActivitiesCSV(ctx context.Context, w io.Writer, store ActivityStore) error {
	entries, err := store.ForDateRange(ctx, "", "")
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ActivityCSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	names := make(map[string]string)
	for _, e := range entries {
		name, ok := names[e.EmployeeID]
		if !ok {
			emp, found, err := store.Employee(ctx, e.EmployeeID)
			if err != nil {
				return err
			}
			name = model.UnknownEmployeeName
			if found {
				name = emp.Name
			}
			names[e.EmployeeID] = name
		}

		duration := ""
		if e.DurationMinutes > 0 {
			duration = strconv.Itoa(e.DurationMinutes)
		}
		record := []string{
			e.Date,
			e.EmployeeID,
			name,
			e.TaskName,
			strconv.Itoa(e.Count),
			e.PatientID,
			duration,
			strconv.FormatFloat(e.IdleHours, 'f', -1, 64),
			strconv.Itoa(e.ConductFlag),
			e.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEmployeesCSV exports the registry in registration order.
func WriteEmployeesCSV(ctx context.Context, w io.Writer, store ActivityStore) error {
	emps, err := store.Employees(ctx)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(EmployeeCSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range emps {
		if err := cw.Write([]string{e.ID, e.Name, e.Department, e.Role}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
