package aggregate

import (
	"fmt"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/metrics"
)

// Alert kinds, used as metric labels.
const (
	AlertLowPerformance = "low_performance"
	AlertBehavior       = "behavior"
	AlertIdle           = "idle"
	AlertConduct        = "conduct"
)

// Alert lists what needs attention for one employee-day.
type Alert struct {
	EmployeeID string   `json:"emp_id"`
	Name       string   `json:"employee"`
	Date       string   `json:"date"`
	Issues     []string `json:"issues"`
}

// Alerts flags low performance, low weighted behaviour, excess idle time
// and conduct issues. Scores with nothing to flag are omitted.
func Alerts(scores []model.PerformanceScore, th Thresholds) []Alert {
	var out []Alert
	for _, s := range scores {
		var issues []string
		if s.FinalPerformance < th.AlertPerformance {
			issues = append(issues, fmt.Sprintf("Low performance: %.2f%%", s.FinalPerformance))
			metrics.RecordAlert(AlertLowPerformance)
		}
		if s.WeightedBehaviorScore < th.AlertBehavior {
			issues = append(issues, fmt.Sprintf("Behavior issues (score: %.2f)", s.WeightedBehaviorScore))
			metrics.RecordAlert(AlertBehavior)
		}
		if s.IdleHours > th.AlertIdleHours {
			issues = append(issues, fmt.Sprintf("High idle time: %.1f hours", s.IdleHours))
			metrics.RecordAlert(AlertIdle)
		}
		if s.ConductFlag != 0 {
			issues = append(issues, "Conduct flag raised")
			metrics.RecordAlert(AlertConduct)
		}
		if len(issues) > 0 {
			out = append(out, Alert{EmployeeID: s.EmployeeID, Name: s.Name, Date: s.Date, Issues: issues})
		}
	}
	return out
}
