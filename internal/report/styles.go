package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/okian/healthrix/internal/domain/aggregate"
)

const ruleWidth = 80

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#4B3FD9", Dark: "#7AA2F7"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#2ECC71"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F39C12"}
	colorError   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#E74C3C"}
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	ruleStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	goodStyle    = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	badStyle     = lipgloss.NewStyle().Foreground(colorError)
)

// bandStyle colours a final score by the configured performance bands.
func bandStyle(final float64, th aggregate.Thresholds) lipgloss.Style {
	switch {
	case final >= th.Excellent:
		return goodStyle
	case final >= th.Good:
		return warnStyle
	default:
		return badStyle
	}
}
