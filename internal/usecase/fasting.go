package usecase

import (
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// FastingHours returns the whole hours between two meals, truncated: a 59 minute gap is 0.
// The result does not depend on argument order.
func FastingHours(a, b domain.MealRecord) int {
	d := a.Timestamp.Sub(b.Timestamp)
	if d < 0 {
		d = -d
	}
	return int(d / time.Hour)
}

// gapBetween builds the gap between two meals, earlier meal first
func gapBetween(a, b domain.MealRecord) domain.FastingGap {
	earlier, later := a, b
	if b.Timestamp.Before(a.Timestamp) {
		earlier, later = b, a
	}
	return domain.FastingGap{
		FromID: earlier.ID,
		ToID:   later.ID,
		Hours:  FastingHours(earlier, later),
	}
}

// IntraDayGaps returns one gap per adjacent pair of a bucket sorted newest first.
// A single-meal day has no gaps.
func IntraDayGaps(bucket []domain.MealRecord) []domain.FastingGap {
	if len(bucket) < 2 {
		return []domain.FastingGap{}
	}
	gaps := make([]domain.FastingGap, 0, len(bucket)-1)
	for i := 0; i < len(bucket)-1; i++ {
		gaps = append(gaps, gapBetween(bucket[i], bucket[i+1]))
	}
	return gaps
}

// InterDayGaps walks the days chronologically and, for each day after the first,
// measures from the previous day's latest meal to this day's earliest meal.
// The result is keyed by the later day. Boundaries touching an empty day are absent.
func InterDayGaps(g DateGroup) map[string]domain.FastingGap {
	gaps := make(map[string]domain.FastingGap)
	keys := g.Keys(OldestFirst)
	for i := 1; i < len(keys); i++ {
		prev, cur := g[keys[i-1]], g[keys[i]]
		if len(prev) == 0 || len(cur) == 0 {
			continue
		}
		latestPrev := prev[0]
		earliestCur := cur[len(cur)-1]
		gaps[keys[i]] = gapBetween(latestPrev, earliestCur)
	}
	return gaps
}

// BuildTimeline renders a DateGroup as display days, most recent day first
func BuildTimeline(g DateGroup) []domain.TimelineDay {
	interDay := InterDayGaps(g)
	days := make([]domain.TimelineDay, 0, len(g))
	for _, key := range g.Keys(NewestFirst) {
		bucket := g[key]
		day := domain.TimelineDay{
			Date:    key,
			Records: bucket,
			Totals:  SumTotals(bucket),
			Gaps:    IntraDayGaps(bucket),
		}
		if gap, ok := interDay[key]; ok {
			day.GapToPreviousDay = &gap
		}
		days = append(days, day)
	}
	return days
}
