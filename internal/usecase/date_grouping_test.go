package usecase

import (
	"testing"
	"time"

	"github.com/harudiet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meal(id string, ts time.Time) domain.MealRecord {
	return domain.MealRecord{ID: id, Timestamp: ts}
}

func TestDateKey_UsesViewerLocation(t *testing.T) {
	seoul, _ := time.LoadLocation("Asia/Seoul")
	ts := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC) // 05:00 next day in Seoul

	assert.Equal(t, "2024-03-04", DateKey(ts, time.UTC))
	assert.Equal(t, "2024-03-05", DateKey(ts, seoul))
	assert.Equal(t, "2024-03-04", DateKey(ts, nil))
}

func TestGroupByDate_Partition(t *testing.T) {
	records := []domain.MealRecord{
		meal("1", time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)),
		meal("2", time.Date(2024, 3, 4, 19, 0, 0, 0, time.UTC)),
		meal("3", time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)),
		meal("4", time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)),
	}

	group := GroupByDate(records, time.UTC)

	assert.Equal(t, len(records), group.Size())
	assert.Len(t, group, 3)

	seen := map[string]bool{}
	for key, bucket := range group {
		for _, r := range bucket {
			assert.Equal(t, key, DateKey(r.Timestamp, time.UTC))
			assert.False(t, seen[r.ID], "record %s in more than one bucket", r.ID)
			seen[r.ID] = true
		}
	}

	// buckets newest first
	require.Len(t, group["2024-03-05"], 2)
	assert.Equal(t, "3", group["2024-03-05"][0].ID)
	assert.Equal(t, "1", group["2024-03-05"][1].ID)
}

func TestGroupByDate_Empty(t *testing.T) {
	group := GroupByDate(nil, time.UTC)

	assert.Empty(t, group)
	assert.Zero(t, group.Size())
	assert.Empty(t, group.Keys(NewestFirst))
}

func TestDateGroupKeys(t *testing.T) {
	group := DateGroup{
		"2024-03-05": nil,
		"2024-02-28": nil,
		"2024-03-01": nil,
	}

	assert.Equal(t, []string{"2024-03-05", "2024-03-01", "2024-02-28"}, group.Keys(NewestFirst))
	assert.Equal(t, []string{"2024-02-28", "2024-03-01", "2024-03-05"}, group.Keys(OldestFirst))
}

func TestSortNewestFirst_Stable(t *testing.T) {
	same := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	records := []domain.MealRecord{
		meal("early", same.Add(-time.Hour)),
		meal("tie-a", same),
		meal("tie-b", same),
		meal("late", same.Add(time.Hour)),
	}

	SortNewestFirst(records)

	ids := []string{records[0].ID, records[1].ID, records[2].ID, records[3].ID}
	assert.Equal(t, []string{"late", "tie-a", "tie-b", "early"}, ids)
}

func TestFilterRange_Inclusive(t *testing.T) {
	seoul, _ := time.LoadLocation("Asia/Seoul")
	records := []domain.MealRecord{
		meal("before", time.Date(2024, 2, 29, 23, 59, 0, 0, seoul)),
		meal("first", time.Date(2024, 3, 1, 0, 0, 0, 0, seoul)),
		meal("last", time.Date(2024, 3, 31, 23, 59, 0, 0, seoul)),
		meal("after", time.Date(2024, 4, 1, 0, 0, 0, 0, seoul)),
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, seoul)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, seoul)
	out := FilterRange(records, from, to, seoul)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "last", out[1].ID)
}
