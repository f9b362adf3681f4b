// Package report renders computed scores as text and export files. It never
// recomputes formula values.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/healthrix/internal/domain/aggregate"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/standards"
)

// Messages for empty inputs.
const (
	NoPerformanceData = "No performance data available."
	NoStatisticsData  = "No data available for statistics."
	NoComparisonData  = "No data available for comparison."
	NoAlerts          = "No alerts - All employees meeting standards."
)

var summaryHeaders = []string{"Name", "Total Points", "Prod Score (Max 90)", "Behavior Score (Max 10)", "FINAL %"}

func rule() string {
	return ruleStyle.Render(strings.Repeat("=", ruleWidth))
}

// banner renders a rule, a title and a rule.
func banner(title string, centered bool) []string {
	if centered {
		title = lipgloss.PlaceHorizontal(ruleWidth, lipgloss.Center, title)
	}
	return []string{"", rule(), titleStyle.Render(title), rule()}
}

func newTable(headers []string, rows [][]string, style func(row, col int) lipgloss.Style) *table.Table {
	return table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return style(row, col)
		})
}

// Summary renders one row per score in the given order. Final scores are
// coloured by the bands in th.
func Summary(scores []model.PerformanceScore, title string, th aggregate.Thresholds) string {
	if len(scores) == 0 {
		return NoPerformanceData
	}

	var lines []string
	if title != "" {
		lines = append(banner(title, true), "")
	}

	rows := make([][]string, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, []string{
			s.Name,
			fmt.Sprintf("%.0f", s.TotalTaskPoints),
			fmt.Sprintf("%.2f", s.WeightedProductivityScore),
			fmt.Sprintf("%.2f", s.WeightedBehaviorScore),
			fmt.Sprintf("%.2f", s.FinalPerformance),
		})
	}
	t := newTable(summaryHeaders, rows, func(row, col int) lipgloss.Style {
		switch {
		case col == 0:
			return cellStyle
		case col == len(summaryHeaders)-1:
			return numberStyle.Inherit(bandStyle(scores[row].FinalPerformance, th))
		default:
			return numberStyle
		}
	})
	lines = append(lines, t.Render())
	return strings.Join(lines, "\n")
}

// Detailed renders the audit view of one score.
func Detailed(s model.PerformanceScore) string {
	conduct := "NO - Good Standing"
	if s.ConductFlag != 0 {
		conduct = "YES - Issue Reported"
	}

	lines := banner("DETAILED PERFORMANCE REPORT", false)
	lines = append(lines,
		"",
		fmt.Sprintf("Employee: %s (%s)", s.Name, s.EmployeeID),
		fmt.Sprintf("Date: %s", s.Date),
		"",
		sectionStyle.Render("--- PRODUCTIVITY METRICS ---"),
		fmt.Sprintf("Total Task Points Earned: %.0f", s.TotalTaskPoints),
		fmt.Sprintf("Productivity Percentage: %.2f%%", s.ProductivityPercentage),
		fmt.Sprintf("Weighted Productivity Score (90%%): %.2f", s.WeightedProductivityScore),
		"",
		sectionStyle.Render("--- BEHAVIOR METRICS ---"),
		fmt.Sprintf("Idle Hours: %.1f", s.IdleHours),
		fmt.Sprintf("Conduct Flag: %s", conduct),
		fmt.Sprintf("Raw Behavior Score: %.2f", s.BehaviorScoreRaw),
		fmt.Sprintf("Weighted Behavior Score (10%%): %.2f", s.WeightedBehaviorScore),
		"",
		sectionStyle.Render("--- TASK BREAKDOWN ---"),
	)

	tasks := make([]string, 0, len(s.TaskBreakdown))
	for name := range s.TaskBreakdown {
		tasks = append(tasks, name)
	}
	sort.Strings(tasks)
	for _, name := range tasks {
		lines = append(lines, fmt.Sprintf("  • %s: %d", name, s.TaskBreakdown[name]))
	}

	lines = append(lines,
		"",
		rule(),
		titleStyle.Render(fmt.Sprintf("FINAL PERFORMANCE SCORE: %.2f%%", s.FinalPerformance)),
		rule(),
		"",
	)
	return strings.Join(lines, "\n")
}

// StatisticsReport renders team statistics and the band distribution.
func StatisticsReport(st aggregate.Stats, d aggregate.Distribution) string {
	if st.Count == 0 {
		return NoStatisticsData
	}

	lines := banner("TEAM PERFORMANCE STATISTICS", false)
	lines = append(lines,
		"",
		fmt.Sprintf("Total Employees: %d", st.Count),
		"",
		sectionStyle.Render("--- PERFORMANCE SCORES ---"),
		fmt.Sprintf("Average: %.2f%%", st.Performance.Avg),
		fmt.Sprintf("Highest: %.2f%% (%s)", st.Performance.Max, st.Top.Name),
		fmt.Sprintf("Lowest: %.2f%% (%s)", st.Performance.Min, st.Bottom.Name),
		"",
		sectionStyle.Render("--- PRODUCTIVITY SCORES ---"),
	)
	lines = append(lines, rangeLines(st.Productivity)...)
	lines = append(lines, "", sectionStyle.Render("--- BEHAVIOR SCORES ---"))
	lines = append(lines, rangeLines(st.Behavior)...)

	th := d.Thresholds
	lines = append(lines,
		"",
		sectionStyle.Render("--- PERFORMANCE DISTRIBUTION ---"),
		fmt.Sprintf("Excellent (≥%.0f%%): %d (%.1f%%)", th.Excellent, d.Excellent.Count, d.Excellent.Percent),
		fmt.Sprintf("Good (%.0f-%.0f%%): %d (%.1f%%)", th.Good, th.Excellent-1, d.Good.Count, d.Good.Percent),
		fmt.Sprintf("Needs Improvement (<%.0f%%): %d (%.1f%%)", th.Good, d.NeedsImprovement.Count, d.NeedsImprovement.Percent),
		"",
		rule(),
		"",
	)
	return strings.Join(lines, "\n")
}

func rangeLines(r aggregate.Range) []string {
	return []string{
		fmt.Sprintf("Average: %.2f", r.Avg),
		fmt.Sprintf("Highest: %.2f", r.Max),
		fmt.Sprintf("Lowest: %.2f", r.Min),
	}
}

// ComparisonReport renders one block per date.
func ComparisonReport(days []aggregate.DaySummary) string {
	if len(days) == 0 {
		return NoComparisonData
	}

	lines := append(banner("PERFORMANCE COMPARISON REPORT", false), "")
	for _, d := range days {
		lines = append(lines,
			fmt.Sprintf("Date: %s", d.Date),
			fmt.Sprintf("  Employees: %d", d.Employees),
			fmt.Sprintf("  Average Performance: %.2f%%", d.AveragePerformance),
			fmt.Sprintf("  Top Performer: %s (%.2f%%)", d.Top.Name, d.Top.Performance),
			"",
		)
	}
	lines = append(lines, rule(), "")
	return strings.Join(lines, "\n")
}

// AlertReport lists every alert with its issues.
func AlertReport(alerts []aggregate.Alert) string {
	if len(alerts) == 0 {
		return "\n" + goodStyle.Render(NoAlerts) + "\n"
	}

	lines := append(banner("PERFORMANCE ALERTS", false), "")
	for _, a := range alerts {
		lines = append(lines,
			fmt.Sprintf("Employee: %s (%s)", a.Name, a.EmployeeID),
			fmt.Sprintf("Date: %s", a.Date),
			"Issues:",
		)
		for _, issue := range a.Issues {
			lines = append(lines, "  • "+badStyle.Render(issue))
		}
		lines = append(lines, "")
	}
	lines = append(lines, fmt.Sprintf("Total Alerts: %d", len(alerts)), rule(), "")
	return strings.Join(lines, "\n")
}

// Leaderboard renders ranked rows.
func Leaderboard(rows []aggregate.Ranked) string {
	if len(rows) == 0 {
		return NoPerformanceData
	}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			fmt.Sprintf("%d", r.Rank),
			r.Score.Name,
			r.Score.EmployeeID,
			fmt.Sprintf("%.2f", r.Score.FinalPerformance),
		})
	}
	t := newTable([]string{"Rank", "Name", "Emp ID", "FINAL %"}, data, func(row, col int) lipgloss.Style {
		if col == 0 || col == 3 {
			return numberStyle
		}
		return cellStyle
	})
	return t.Render()
}

// Trend renders one employee's scores by date with the day-over-day change.
func Trend(scores []model.PerformanceScore) string {
	if len(scores) == 0 {
		return NoPerformanceData
	}

	data := make([][]string, 0, len(scores))
	for i, s := range scores {
		change := "-"
		if i > 0 {
			change = fmt.Sprintf("%+.2f", s.FinalPerformance-scores[i-1].FinalPerformance)
		}
		data = append(data, []string{
			s.Date,
			fmt.Sprintf("%.0f", s.TotalTaskPoints),
			fmt.Sprintf("%.2f", s.WeightedProductivityScore),
			fmt.Sprintf("%.2f", s.WeightedBehaviorScore),
			fmt.Sprintf("%.2f", s.FinalPerformance),
			change,
		})
	}
	t := newTable([]string{"Date", "Total Points", "Prod Score", "Behavior Score", "FINAL %", "Change"}, data,
		func(row, col int) lipgloss.Style {
			if col == 0 {
				return cellStyle
			}
			return numberStyle
		})

	header := fmt.Sprintf("Performance trend for %s (%s)", scores[0].Name, scores[0].EmployeeID)
	return titleStyle.Render(header) + "\n" + t.Render()
}

// Standards renders the task standards table.
func Standards(list []standards.TaskStandard) string {
	if len(list) == 0 {
		return "No task standards registered."
	}
	data := make([][]string, 0, len(list))
	for _, st := range list {
		data = append(data, []string{
			st.TaskName,
			st.Category,
			fmt.Sprintf("%d", st.BaseScore),
			fmt.Sprintf("%d", st.TargetDaily),
		})
	}
	t := newTable([]string{"Task", "Category", "Points", "Target/Day"}, data, func(_, col int) lipgloss.Style {
		if col >= 2 {
			return numberStyle
		}
		return cellStyle
	})
	return t.Render()
}
