package railcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railcache/railcache/pkg/keys"
)

var serviceDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestScheduleCache_RoundTrip(t *testing.T) {
	svc := newTestService(t)
	sc := NewScheduleCache(svc)
	ctx := context.Background()

	schedule := &OptimizedSchedule{
		Date:  "2024-03-15",
		Score: 0.92,
		Entries: []ScheduleEntry{
			{TrainsetID: "TS-042", Role: "service", Bay: "B-07", Rank: 1},
			{TrainsetID: "TS-017", Role: "standby", Bay: "B-02", Rank: 2},
		},
	}
	sc.SetOptimizedSchedule(ctx, serviceDate, schedule, 0)

	got, ok := sc.GetOptimizedSchedule(ctx, serviceDate)
	require.True(t, ok)
	assert.Equal(t, schedule, got)
}

func TestScheduleCache_ConflictsLiveInSeparateNamespace(t *testing.T) {
	svc := newTestService(t)
	sc := NewScheduleCache(svc)
	ctx := context.Background()

	sc.SetOptimizedSchedule(ctx, serviceDate, &OptimizedSchedule{Date: "2024-03-15"}, 0)
	sc.SetScheduleConflicts(ctx, serviceDate, &ScheduleConflicts{
		Date:      "2024-03-15",
		Conflicts: []Conflict{{TrainsetID: "TS-042", Rule: "fitness-expired"}},
	}, 0)

	// Both entries must exist under their own keys
	assert.True(t, svc.Exists(ctx, keys.Schedule("2024-03-15")))
	assert.True(t, svc.Exists(ctx, keys.ScheduleConflicts("2024-03-15")))

	conflicts, ok := sc.GetScheduleConflicts(ctx, serviceDate)
	require.True(t, ok)
	assert.Len(t, conflicts.Conflicts, 1)
}

func TestScheduleCache_InvalidateDateRemovesBothEntries(t *testing.T) {
	svc := newTestService(t)
	sc := NewScheduleCache(svc)
	ctx := context.Background()

	sc.SetOptimizedSchedule(ctx, serviceDate, &OptimizedSchedule{Date: "2024-03-15"}, 0)
	sc.SetScheduleConflicts(ctx, serviceDate, &ScheduleConflicts{Date: "2024-03-15"}, 0)

	sc.InvalidateScheduleDate(ctx, serviceDate)

	_, ok := sc.GetOptimizedSchedule(ctx, serviceDate)
	assert.False(t, ok, "Schedule entry must be removed")

	_, ok = sc.GetScheduleConflicts(ctx, serviceDate)
	assert.False(t, ok, "Conflicts entry must be removed together with the schedule")
}

func TestScheduleCache_InvalidateLeavesOtherDatesAlone(t *testing.T) {
	svc := newTestService(t)
	sc := NewScheduleCache(svc)
	ctx := context.Background()

	otherDate := serviceDate.AddDate(0, 0, 1)
	sc.SetOptimizedSchedule(ctx, serviceDate, &OptimizedSchedule{Date: "2024-03-15"}, 0)
	sc.SetOptimizedSchedule(ctx, otherDate, &OptimizedSchedule{Date: "2024-03-16"}, 0)

	sc.InvalidateScheduleDate(ctx, serviceDate)

	_, ok := sc.GetOptimizedSchedule(ctx, otherDate)
	assert.True(t, ok)
}
