package model

// UnknownEmployeeName is shown for employee IDs with no registry entry.
const UnknownEmployeeName = "Unknown"

// Employee is a registry record keyed by ID.
type Employee struct {
	ID         string `json:"emp_id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role,omitempty"`
}

// DailyMetric carries the behavioural inputs of one employee-day as a single
// record. When present it takes precedence over the values repeated on
// activity rows.
type DailyMetric struct {
	EmployeeID   string  `json:"emp_id"`
	Date         string  `json:"date"`
	IdleHours    float64 `json:"idle_hours"`
	ConductFlag  int     `json:"conduct_flag"`
	ConductNotes string  `json:"conduct_notes,omitempty"`
	Supervisor   string  `json:"supervisor,omitempty"`
}

// Validate applies the same field rules as ActivityEntry.
func (m DailyMetric) Validate() error {
	if m.EmployeeID == "" {
		return &ValidationError{Field: "emp_id", Value: m.EmployeeID, Reason: "cannot be empty"}
	}
	if !ValidDate(m.Date) {
		return &ValidationError{Field: "date", Value: m.Date, Reason: "expected YYYY-MM-DD"}
	}
	if err := checkIdleHours(m.IdleHours); err != nil {
		return err
	}
	if m.ConductFlag != 0 && m.ConductFlag != 1 {
		return &ValidationError{Field: "conduct_flag", Value: m.ConductFlag, Reason: "must be 0 (good) or 1 (issue)"}
	}
	return nil
}
