package model

import "strings"

// ScoreColumns is the flat export header. Downstream spreadsheets key on
// these names, so order and spelling are fixed.
var ScoreColumns = []string{
	"Emp_ID",
	"Name",
	"Date",
	"Total_Task_Points",
	"Productivity_%",
	"Weighted_Prod_Score",
	"Behavior_Score_Raw",
	"Weighted_Behavior_Score",
	"Final_Performance_%",
	"Idle_Hours",
	"Conduct_Flag",
}

// PerformanceScore is the computed result for one employee-day. Values are
// unrounded; rounding happens only when rendering.
type PerformanceScore struct {
	EmployeeID                string         `json:"emp_id"`
	Name                      string         `json:"name"`
	Date                      string         `json:"date"`
	TotalTaskPoints           float64        `json:"total_task_points"`
	ProductivityPercentage    float64        `json:"productivity_percentage"`
	WeightedProductivityScore float64        `json:"weighted_prod_score"`
	BehaviorScoreRaw          float64        `json:"behavior_score_raw"`
	WeightedBehaviorScore     float64        `json:"weighted_behavior_score"`
	FinalPerformance          float64        `json:"final_performance"`
	TaskBreakdown             map[string]int `json:"task_breakdown"`
	IdleHours                 float64        `json:"idle_hours"`
	ConductFlag               int            `json:"conduct_flag"`
}

// TaskCount is the number of completions behind the score.
func (s PerformanceScore) TaskCount() int {
	total := 0
	for _, n := range s.TaskBreakdown {
		total += n
	}
	return total
}

// ID is the persistence key, e.g. SCR_EMP001_20251103.
func (s PerformanceScore) ID() string {
	return ScoreID(s.EmployeeID, s.Date)
}

// ScoreID builds the persistence key for an employee-day.
func ScoreID(employeeID, date string) string {
	return "SCR_" + employeeID + "_" + strings.ReplaceAll(date, "-", "")
}
