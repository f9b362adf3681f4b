// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-day format used everywhere a date is carried.
const DateLayout = "2006-01-02"

// ActivityEntry is one logged unit of work for an employee on a day.
// IdleHours and ConductFlag are daily values repeated on every row of the day.
type ActivityEntry struct {
	Date            string  `json:"date"`
	EmployeeID      string  `json:"emp_id"`
	TaskName        string  `json:"task_name"`
	Count           int     `json:"count"`
	PatientID       string  `json:"patient_id,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	IdleHours       float64 `json:"idle_hours"`
	ConductFlag     int     `json:"conduct_flag"`
	Notes           string  `json:"notes,omitempty"`
}

// EntryOption sets an optional ActivityEntry field.
type EntryOption func(*ActivityEntry)

// WithCount sets how many times the task was completed.
func WithCount(n int) EntryOption {
	return func(e *ActivityEntry) { e.Count = n }
}

// WithPatient sets the patient the work was done for.
func WithPatient(id string) EntryOption {
	return func(e *ActivityEntry) { e.PatientID = id }
}

// WithDuration sets the minutes spent on the task.
func WithDuration(minutes int) EntryOption {
	return func(e *ActivityEntry) { e.DurationMinutes = minutes }
}

// WithIdleHours sets the day's idle hours.
func WithIdleHours(h float64) EntryOption {
	return func(e *ActivityEntry) { e.IdleHours = h }
}

// WithConductFlag sets the day's conduct flag (0 good, 1 issue).
func WithConductFlag(flag int) EntryOption {
	return func(e *ActivityEntry) { e.ConductFlag = flag }
}

// WithNotes attaches free-form notes.
func WithNotes(notes string) EntryOption {
	return func(e *ActivityEntry) { e.Notes = notes }
}

// NewActivityEntry builds a validated entry. Count defaults to 1.
func NewActivityEntry(date, employeeID, taskName string, opts ...EntryOption) (ActivityEntry, error) {
	e := ActivityEntry{
		Date:       date,
		EmployeeID: employeeID,
		TaskName:   taskName,
		Count:      1,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if err := e.Validate(); err != nil {
		return ActivityEntry{}, err
	}
	return e, nil
}

// Validate reports the first violated field as a *ValidationError.
func (e ActivityEntry) Validate() error {
	if !ValidDate(e.Date) {
		return &ValidationError{Field: "date", Value: e.Date, Reason: "expected YYYY-MM-DD"}
	}
	if e.Count < 0 {
		return &ValidationError{Field: "count", Value: e.Count, Reason: "cannot be negative"}
	}
	if err := checkIdleHours(e.IdleHours); err != nil {
		return err
	}
	if e.ConductFlag != 0 && e.ConductFlag != 1 {
		return &ValidationError{Field: "conduct_flag", Value: e.ConductFlag, Reason: "must be 0 (good) or 1 (issue)"}
	}
	return nil
}

// ValidDate reports whether s is a real calendar day in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// checkIdleHours rejects negative and non-finite idle hours.
func checkIdleHours(h float64) error {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return &ValidationError{Field: "idle_hours", Value: h, Reason: "must be a finite number"}
	}
	if h < 0 {
		return &ValidationError{Field: "idle_hours", Value: h, Reason: "cannot be negative"}
	}
	return nil
}
