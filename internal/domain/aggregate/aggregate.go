// Package aggregate derives team-level views from computed scores.
package aggregate

import (
	"slices"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/scoring"
	"github.com/okian/healthrix/pkg/metrics"
)

// Performer identifies one employee and their final score.
type Performer struct {
	EmployeeID  string  `json:"emp_id"`
	Name        string  `json:"name"`
	Performance float64 `json:"performance"`
}

// Range is the average, highest and lowest of one score component.
type Range struct {
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// Stats summarises a set of scores. Productivity and Behavior describe the
// weighted components.
type Stats struct {
	Count        int        `json:"count"`
	Performance  Range      `json:"performance"`
	Productivity Range      `json:"productivity"`
	Behavior     Range      `json:"behavior"`
	Top          *Performer `json:"top_performer"`
	Bottom       *Performer `json:"needs_improvement"`
}

// Statistics computes Stats. The input is not reordered; an empty input
// yields zero values and no performers.
func Statistics(scores []model.PerformanceScore) Stats {
	if len(scores) == 0 {
		return Stats{}
	}

	sorted := slices.Clone(scores)
	scoring.SortByFinal(sorted)

	st := Stats{Count: len(sorted)}
	st.Performance = rangeOf(sorted, func(s model.PerformanceScore) float64 { return s.FinalPerformance })
	st.Productivity = rangeOf(sorted, func(s model.PerformanceScore) float64 { return s.WeightedProductivityScore })
	st.Behavior = rangeOf(sorted, func(s model.PerformanceScore) float64 { return s.WeightedBehaviorScore })

	top, bottom := performer(sorted[0]), performer(sorted[len(sorted)-1])
	st.Top, st.Bottom = &top, &bottom
	return st
}

func rangeOf(scores []model.PerformanceScore, value func(model.PerformanceScore) float64) Range {
	r := Range{Max: value(scores[0]), Min: value(scores[0])}
	var sum float64
	for _, s := range scores {
		v := value(s)
		sum += v
		r.Max = max(r.Max, v)
		r.Min = min(r.Min, v)
	}
	r.Avg = sum / float64(len(scores))
	return r
}

func performer(s model.PerformanceScore) Performer {
	return Performer{EmployeeID: s.EmployeeID, Name: s.Name, Performance: s.FinalPerformance}
}

// Bucket is one band of a Distribution.
type Bucket struct {
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution counts scores per performance band.
type Distribution struct {
	Total            int        `json:"total"`
	Excellent        Bucket     `json:"excellent"`
	Good             Bucket     `json:"good"`
	NeedsImprovement Bucket     `json:"needs_improvement"`
	Thresholds       Thresholds `json:"thresholds"`
}

// Distribute places each score in excellent (>= Excellent), good
// (>= Good) or needs improvement.
func Distribute(scores []model.PerformanceScore, th Thresholds) Distribution {
	d := Distribution{Total: len(scores), Thresholds: th}
	for _, s := range scores {
		switch {
		case s.FinalPerformance >= th.Excellent:
			d.Excellent.Count++
		case s.FinalPerformance >= th.Good:
			d.Good.Count++
		default:
			d.NeedsImprovement.Count++
		}
	}
	if d.Total > 0 {
		for _, b := range []*Bucket{&d.Excellent, &d.Good, &d.NeedsImprovement} {
			b.Percent = float64(b.Count) / float64(d.Total) * 100
		}
	}

	metrics.UpdateDistribution("excellent", d.Excellent.Count)
	metrics.UpdateDistribution("good", d.Good.Count)
	metrics.UpdateDistribution("needs_improvement", d.NeedsImprovement.Count)
	return d
}

// DaySummary condenses one date of a range.
type DaySummary struct {
	Date               string    `json:"date"`
	Employees          int       `json:"employees"`
	AveragePerformance float64   `json:"average_performance"`
	Top                Performer `json:"top_performer"`
}

// Comparison summarises each date of r in ascending order. Dates without
// scores are left out.
func Comparison(r scoring.DateRange) []DaySummary {
	dates := slices.Clone(r.Dates)
	slices.Sort(dates)

	out := make([]DaySummary, 0, len(dates))
	for _, d := range dates {
		scores := r.Scores[d]
		if len(scores) == 0 {
			continue
		}
		sorted := slices.Clone(scores)
		scoring.SortByFinal(sorted)

		var sum float64
		for _, s := range sorted {
			sum += s.FinalPerformance
		}
		out = append(out, DaySummary{
			Date:               d,
			Employees:          len(sorted),
			AveragePerformance: sum / float64(len(sorted)),
			Top:                performer(sorted[0]),
		})
	}
	return out
}
