package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seriesOf(counts ...int64) []DailySample {
	out := make([]DailySample, 0, len(counts))
	for _, c := range counts {
		out = append(out, DailySample{Count: c})
	}
	return out
}

func TestComputeActivityStats(t *testing.T) {
	t.Run("empty_series_is_all_zero", func(t *testing.T) {
		got := ComputeActivityStats(nil)
		assert.Equal(t, ActivityStats{}, got)
	})

	t.Run("trailing_gap_ends_current_streak", func(t *testing.T) {
		got := ComputeActivityStats(seriesOf(1, 1, 1, 1, 1, 1, 1, 1, 0))
		assert.Equal(t, int64(0), got.CurrentStreak)
		assert.Equal(t, int64(8), got.LongestStreak)
	})

	t.Run("streak_does_not_cross_a_gap", func(t *testing.T) {
		got := ComputeActivityStats(seriesOf(1, 1, 0, 1, 1, 1, 1, 1, 1, 1))
		assert.Equal(t, int64(7), got.CurrentStreak)
		assert.Equal(t, int64(7), got.LongestStreak)
	})

	t.Run("all_active_days", func(t *testing.T) {
		got := ComputeActivityStats(seriesOf(2, 5, 1, 3, 9))
		assert.Equal(t, int64(5), got.CurrentStreak)
		assert.Equal(t, int64(5), got.LongestStreak)
		assert.Equal(t, int64(5), got.ActiveDays)
	})

	t.Run("average_over_whole_window", func(t *testing.T) {
		got := ComputeActivityStats(seriesOf(5, 4, 0, 0, 0, 0, 0, 0, 0, 0))
		assert.Equal(t, int64(2), got.ActiveDays)
		assert.InDelta(t, 0.9, got.DailyAverage, 1e-9)
	})

	t.Run("single_zero_day", func(t *testing.T) {
		got := ComputeActivityStats(seriesOf(0))
		assert.Equal(t, ActivityStats{}, got)
	})

	t.Run("longest_never_below_current", func(t *testing.T) {
		cases := [][]int64{
			{1},
			{0, 1},
			{1, 0, 1, 1},
			{3, 3, 3, 0, 0, 1, 1, 1, 1},
			{0, 0, 0},
			{1, 1, 1, 1, 1},
		}
		for _, counts := range cases {
			got := ComputeActivityStats(seriesOf(counts...))
			assert.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak, "series %v", counts)
		}
	})
}

func TestParseMetric(t *testing.T) {
	for _, m := range []string{"view", "like", "bookmark", "share"} {
		got, err := ParseMetric(m)
		assert.NoError(t, err)
		assert.Equal(t, MetricType(m), got)
	}

	_, err := ParseMetric("clap")
	assert.Error(t, err)
	var ae *AppError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, CodeValidation, ae.Code)
}

func TestIsSessionID(t *testing.T) {
	assert.True(t, IsSessionID("6f3d0d9e-4f7a-4c3b-9a93-2a2f4f6a8a10"))
	assert.False(t, IsSessionID(""))
	assert.False(t, IsSessionID("not-a-token"))
	assert.False(t, IsSessionID("6f3d0d9e4f7a"))
}
