package calendar

import "sort"

// FragmentationConfig carries the tunables of the fragmentation heuristic.
// The formula's shape is fixed (more gaps raise the score, capped at
// MaxScore); the constants may be recalibrated.
type FragmentationConfig struct {
	GapThresholdMinutes float64
	GapWeight           float64
	GapMinutesDivisor   float64
	MaxScore            float64
}

// DefaultFragmentationConfig returns the stock tuning: gaps longer than 15
// minutes count, each worth 10 points plus one point per accumulated hour,
// capped at 100.
func DefaultFragmentationConfig() FragmentationConfig {
	return FragmentationConfig{
		GapThresholdMinutes: 15,
		GapWeight:           10,
		GapMinutesDivisor:   60,
		MaxScore:            100,
	}
}

// Fragmentation is the per-day schedule fragmentation measure.
type Fragmentation struct {
	Score           float64 `json:"score"`
	Gaps            int     `json:"gaps"`
	TotalGapMinutes float64 `json:"total_gap_minutes"`
}

// Fragment scores how chopped a day's schedule is. Input is the day's
// items; all-day and malformed events are ignored. Consecutive pairs of the
// start-sorted remainder contribute a gap when the free interval between
// them exceeds the threshold.
func Fragment(items []Event, cfg FragmentationConfig) Fragmentation {
	timed := make([]Event, 0, len(items))
	for _, e := range items {
		if e.HasValidTimes() && !e.IsAllDay {
			timed = append(timed, e)
		}
	}
	if len(timed) == 0 {
		return Fragmentation{}
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].StartTime < timed[j].StartTime
	})

	var result Fragmentation
	for i := 0; i < len(timed)-1; i++ {
		gapMinutes := float64(timed[i+1].StartTime-timed[i].EndTime) / 60000
		if gapMinutes > cfg.GapThresholdMinutes {
			result.Gaps++
			result.TotalGapMinutes += gapMinutes
		}
	}

	result.Score = float64(result.Gaps)*cfg.GapWeight + result.TotalGapMinutes/cfg.GapMinutesDivisor
	if result.Score > cfg.MaxScore {
		result.Score = cfg.MaxScore
	}
	return result
}
