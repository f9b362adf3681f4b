package aggregate

import (
	"fmt"
	"slices"

	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/internal/domain/scoring"
	"github.com/okian/healthrix/pkg/metrics"
)

// Ranked is a leaderboard row.
type Ranked struct {
	Rank  int                    `json:"rank"`
	Score model.PerformanceScore `json:"score"`
}

// Leaderboard returns the top limit scores, best first, with 1-based ranks.
func Leaderboard(scores []model.PerformanceScore, limit int) ([]Ranked, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, limit)
	}

	sorted := slices.Clone(scores)
	scoring.SortByFinal(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]Ranked, len(sorted))
	for i, s := range sorted {
		out[i] = Ranked{Score: s}
	}
	assignRanksWithTies(out)
	metrics.RecordLeaderboard()
	return out, nil
}

// assignRanksWithTies gives equal scores the same rank; the next distinct
// score takes the following rank.
func assignRanksWithTies(rows []Ranked) {
	currentRank := 1
	for i := 0; i < len(rows); i++ {
		rows[i].Rank = currentRank

		same := 1
		for j := i + 1; j < len(rows) && rows[j].Score.FinalPerformance == rows[i].Score.FinalPerformance; j++ {
			rows[j].Rank = currentRank
			same++
		}

		currentRank++
		i += same - 1
	}
}
