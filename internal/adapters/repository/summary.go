package repository

import "context"

// DailySummary condenses one employee's rows for a day.
type DailySummary struct {
	EmployeeID    string  `json:"emp_id"`
	Date          string  `json:"date"`
	TotalTasks    int     `json:"total_tasks"` // distinct task names
	TotalCount    int     `json:"total_count"`
	IdleHours     float64 `json:"idle_hours"`
	ConductIssues int     `json:"conduct_issues"`
}

// SummarizeDay builds the DailySummary for employeeID on date. A day with
// no rows yields a zero summary.
func SummarizeDay(ctx context.Context, store ActivityStore, employeeID, date string) (DailySummary, error) {
	entries, err := store.ForEmployeeOnDate(ctx, employeeID, date)
	if err != nil {
		return DailySummary{}, err
	}

	sum := DailySummary{EmployeeID: employeeID, Date: date}
	tasks := make(map[string]struct{})
	for _, e := range entries {
		tasks[e.TaskName] = struct{}{}
		sum.TotalCount += e.Count
		sum.IdleHours = max(sum.IdleHours, e.IdleHours)
		sum.ConductIssues = max(sum.ConductIssues, e.ConductFlag)
	}
	sum.TotalTasks = len(tasks)
	return sum, nil
}
