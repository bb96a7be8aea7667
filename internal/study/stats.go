package study

import (
	"context"

	"github.com/avelichko/lexicards/internal/stores"
)

// streakWindowDays is the trailing window used for the activity streak.
const streakWindowDays = 7

type ProgressStats struct {
	TotalCards   int64   `json:"total_cards"`
	TotalReviews int64   `json:"total_reviews"`
	AverageScore float64 `json:"average_score"`
	StreakDays   int64   `json:"streak_days"`
}

// Stats summarizes the subject's learning progress: catalog size, lifetime
// review count, lifetime accuracy, and distinct active days in the trailing
// week.
func (s *Server) Stats(ctx context.Context, subjectID int64) (ProgressStats, error) {
	raw, err := s.Store.AggregateStats(ctx, stores.AggregateStatsParams{
		UserID: subjectID,
		Since:  s.Nower.Now().AddDate(0, 0, -streakWindowDays),
	})
	if err != nil {
		return ProgressStats{}, err
	}
	avg := 0.0
	if raw.TotalReviews > 0 {
		avg = round2(100 * float64(raw.TotalCorrect) / float64(raw.TotalReviews))
	}
	return ProgressStats{
		TotalCards:   raw.TotalCards,
		TotalReviews: raw.TotalReviews,
		AverageScore: avg,
		StreakDays:   raw.ActiveDays,
	}, nil
}
