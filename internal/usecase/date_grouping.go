package usecase

import (
	"slices"
	"sort"
	"time"

	"github.com/harudiet/backend/internal/domain"
)

// DateKeyLayout renders the calendar-day key of a DateGroup
const DateKeyLayout = "2006-01-02"

// Order selects how DateGroup keys are iterated
type Order int

const (
	// NewestFirst puts the most recent day first, as activity views do
	NewestFirst Order = iota
	// OldestFirst iterates days chronologically
	OldestFirst
)

// DateGroup buckets records by local calendar day. Each bucket is sorted newest first;
// the map itself has no order, consumers pick one through Keys.
type DateGroup map[string][]domain.MealRecord

// DateKey returns the calendar-day key of t in loc
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// GroupByDate partitions records by the local calendar day of their timestamp
func GroupByDate(records []domain.MealRecord, loc *time.Location) DateGroup {
	group := make(DateGroup)
	for _, r := range records {
		key := DateKey(r.Timestamp, loc)
		group[key] = append(group[key], r)
	}
	for _, bucket := range group {
		SortNewestFirst(bucket)
	}
	return group
}

// Keys returns the day keys in the requested order
func (g DateGroup) Keys(order Order) []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if order == NewestFirst {
		slices.Reverse(keys)
	}
	return keys
}

// Size returns the number of records across all buckets
func (g DateGroup) Size() int {
	n := 0
	for _, bucket := range g {
		n += len(bucket)
	}
	return n
}

// SortNewestFirst sorts records in place by timestamp, most recent first.
// Records with equal timestamps keep their relative order.
func SortNewestFirst(records []domain.MealRecord) {
	slices.SortStableFunc(records, func(a, b domain.MealRecord) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

// FilterRange keeps records whose local calendar day lies within [from, to], inclusive
func FilterRange(records []domain.MealRecord, from, to time.Time, loc *time.Location) []domain.MealRecord {
	fromKey, toKey := DateKey(from, loc), DateKey(to, loc)
	out := make([]domain.MealRecord, 0, len(records))
	for _, r := range records {
		key := DateKey(r.Timestamp, loc)
		if key >= fromKey && key <= toKey {
			out = append(out, r)
		}
	}
	return out
}
