package engagement

import (
	"context"

	"github.com/contentpulse/engagement-service/internal/domain"
)

// maxWindowDays bounds the lookback so a stats read is at most one
// year-and-change of keys in a single MGET.
const maxWindowDays = 367

// Stats materializes the daily series for a subject over the trailing
// window (missing days are zero, not absent) and runs the streak and
// trend calculation over it.
func (s *Service) Stats(ctx context.Context, subject string, windowDays int) (domain.ActivityStats, error) {
	if subject == "" {
		return domain.ActivityStats{}, domain.ErrValidation("subject is required")
	}
	if windowDays <= 0 {
		windowDays = 30
	}
	if windowDays > maxWindowDays {
		windowDays = maxWindowDays
	}

	today := s.clock.Now().UTC()
	keys := make([]string, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		keys = append(keys, domain.ActivityKey(subject, day))
	}

	vals, err := s.store.MGetInt(ctx, keys...)
	if err != nil {
		return domain.ActivityStats{}, err
	}

	series := make([]domain.DailySample, len(vals))
	for i, v := range vals {
		series[i] = domain.DailySample{
			Day:   today.AddDate(0, 0, -(windowDays - 1 - i)).Format("2006-01-02"),
			Count: v,
		}
	}
	return domain.ComputeActivityStats(series), nil
}
