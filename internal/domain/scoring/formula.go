package scoring

import "github.com/okian/healthrix/internal/domain/model"

// Standards resolves the points a task is worth.
type Standards interface {
	Score(taskName string, count int) float64
}

// TaskPoints sums the points of every row and counts completions per task.
// Unregistered tasks contribute zero points but still appear in the breakdown.
func TaskPoints(std Standards, entries []model.ActivityEntry) (float64, map[string]int) {
	var total float64
	breakdown := make(map[string]int)
	for _, e := range entries {
		total += std.Score(e.TaskName, e.Count)
		breakdown[e.TaskName] += e.Count
	}
	return total, breakdown
}

// ProductivityScore returns (percentage of target, weighted score).
// There is no cap: 150% of target stays 150%.
func ProductivityScore(points float64, cfg Config) (float64, float64) {
	pct := points / cfg.DailyTarget * 100
	return pct, pct * cfg.ProductivityWeight
}

// BehaviorScore returns (raw score floored at 0, weighted score).
func BehaviorScore(idleHours float64, conductFlag int, cfg Config) (float64, float64) {
	raw := maxBehaviorScore - idleHours*cfg.IdlePenaltyPerHour - float64(conductFlag)*cfg.ConductPenalty
	raw = max(raw, 0)
	return raw, raw * cfg.BehaviorWeight
}

// dayBehavior takes the worst idle and conduct values logged for the day.
// A supervisor's daily record replaces both when present.
func dayBehavior(entries []model.ActivityEntry, metric *model.DailyMetric) (float64, int) {
	if metric != nil {
		return metric.IdleHours, metric.ConductFlag
	}
	var idle float64
	var conduct int
	for _, e := range entries {
		idle = max(idle, e.IdleHours)
		conduct = max(conduct, e.ConductFlag)
	}
	return idle, conduct
}

func compute(std Standards, cfg Config, entries []model.ActivityEntry, name string, metric *model.DailyMetric) (model.PerformanceScore, bool) {
	if len(entries) == 0 {
		return model.PerformanceScore{}, false
	}

	points, breakdown := TaskPoints(std, entries)
	pct, weightedProd := ProductivityScore(points, cfg)
	idle, conduct := dayBehavior(entries, metric)
	rawBehavior, weightedBehavior := BehaviorScore(idle, conduct, cfg)

	if name == "" {
		name = model.UnknownEmployeeName
	}

	return model.PerformanceScore{
		EmployeeID:                entries[0].EmployeeID,
		Name:                      name,
		Date:                      entries[0].Date,
		TotalTaskPoints:           points,
		ProductivityPercentage:    pct,
		WeightedProductivityScore: weightedProd,
		BehaviorScoreRaw:          rawBehavior,
		WeightedBehaviorScore:     weightedBehavior,
		FinalPerformance:          weightedProd + weightedBehavior,
		TaskBreakdown:             breakdown,
		IdleHours:                 idle,
		ConductFlag:               conduct,
	}, true
}
