package domain

type DailySample struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int64  `json:"count"`
}

type ActivityStats struct {
	CurrentStreak int64   `json:"current_streak"`
	LongestStreak int64   `json:"longest_streak"`
	ActiveDays    int64   `json:"active_days"`
	DailyAverage  float64 `json:"daily_average"`
}

// ComputeActivityStats derives streak and trend figures from an ordered
// (oldest first) daily series. Days with no activity must be present as
// zero-count samples; the average is taken over the whole window, not
// just active days.
func ComputeActivityStats(series []DailySample) ActivityStats {
	var stats ActivityStats
	if len(series) == 0 {
		return stats
	}

	var sum int64
	var running int64
	for _, s := range series {
		sum += s.Count
		if s.Count > 0 {
			stats.ActiveDays++
			running++
			if running > stats.LongestStreak {
				stats.LongestStreak = running
			}
		} else {
			running = 0
		}
	}
	stats.DailyAverage = float64(sum) / float64(len(series))

	// Current streak: walk back from the most recent day, stop at the
	// first gap. A zero on the last day means the streak is over.
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Count == 0 {
			break
		}
		stats.CurrentStreak++
	}

	// A still-growing current streak is also the longest one.
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}

	return stats
}
