package plan

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/oracle"
)

func TestNew_StartsStale(t *testing.T) {
	h := New()
	assert.True(t, h.IsStale(0))
}

func TestSetDaily_ClearsStaleAndSubLevels(t *testing.T) {
	h := New()
	h.Hourly = []Entry{{Activity: "stale"}}
	h.SetDaily(DefaultDaily("farmer", 3), 3)

	assert.False(t, h.IsStale(3))
	assert.True(t, h.IsStale(4))
	assert.Empty(t, h.Hourly)
}

func TestCurrentActivity_PrefersFinestLevel(t *testing.T) {
	h := New()
	h.SetDaily(DefaultDaily("farmer", 0), 0)
	h.Hourly = []Entry{{Start: gametime.Time{Day: 0, Hour: 8, Minute: 0}, Duration: 60, Activity: "hourly task"}}
	h.Detailed = []Entry{{Start: gametime.Time{Day: 0, Hour: 8, Minute: 0}, Duration: 10, Activity: "detailed task"}}

	e, ok := h.CurrentActivity(gametime.Time{Day: 0, Hour: 8, Minute: 5})
	require.True(t, ok)
	assert.Equal(t, "detailed task", e.Activity)
}

func TestCurrentActivity_FallsBackToDailyWhenNoSubLevels(t *testing.T) {
	h := New()
	h.SetDaily(DefaultDaily("farmer", 0), 0)

	e, ok := h.CurrentActivity(gametime.Time{Day: 0, Hour: 9, Minute: 0})
	require.True(t, ok)
	assert.Equal(t, "tending the fields", e.Activity)
}

func TestReplan_KeepsPastEntriesAndReplacesFuture(t *testing.T) {
	h := New()
	h.SetDaily(DefaultDaily("merchant", 0), 0)
	now := gametime.Time{Day: 0, Hour: 10, Minute: 0}

	replacement := []Entry{{Start: now, Duration: 30, Activity: "improvise"}}
	h.Replan(now, replacement)

	assert.Nil(t, h.Hourly)
	assert.Nil(t, h.Detailed)

	found := false
	for _, e := range h.Daily {
		if e.Activity == "improvise" {
			found = true
		}
		assert.True(t, e.Start.Before(now) || e.Activity == "improvise")
	}
	assert.True(t, found)
}

func TestShouldDecompose_AreProbabilisticButBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	hourlyCount, detailedCount := 0, 0
	for i := 0; i < 1000; i++ {
		if ShouldDecomposeHourly(rng) {
			hourlyCount++
		}
		if ShouldDecomposeDetailed(rng) {
			detailedCount++
		}
	}
	assert.Greater(t, hourlyCount, 0)
	assert.Greater(t, detailedCount, 0)
	assert.Less(t, detailedCount, hourlyCount+200) // detailed fires less often than hourly
}

func TestGenerateDaily_OfflineFallsBackToDefaultDaily(t *testing.T) {
	entries := GenerateDaily(context.Background(), oracle.Offline{}, "scholar", "curious", 2)
	require.NotEmpty(t, entries)
	assert.Equal(t, "studying", entries[3].Activity)
}

func TestGenerateDaily_OracleDrivenParsesEntries(t *testing.T) {
	stub := &oracle.Stub{
		GenResponses: []any{
			map[string]any{
				"entries": []map[string]any{
					{"start": "07:00", "duration_minutes": 30, "activity": "fishing", "location": "lake"},
				},
			},
		},
	}
	entries := GenerateDaily(context.Background(), stub, "farmer", "steady", 1)
	require.Len(t, entries, 1)
	assert.Equal(t, "fishing", entries[0].Activity)
	assert.Equal(t, 7, entries[0].Start.Hour)
}

func TestGenerateDaily_MalformedOracleResponseFallsBack(t *testing.T) {
	stub := &oracle.Stub{GenResponses: []any{map[string]any{"entries": "not a list"}}}
	entries := GenerateDaily(context.Background(), stub, "merchant", "driven", 0)
	require.NotEmpty(t, entries)
	assert.Equal(t, "minding the stall", entries[3].Activity)
}

func TestGenerateHourly_OfflineSplitsBlockInTwo(t *testing.T) {
	parent := Entry{Start: gametime.Time{Day: 0, Hour: 8, Minute: 0}, Duration: 240, Activity: "tending the fields", Location: "the fields"}
	entries := GenerateHourly(context.Background(), oracle.Offline{}, parent)
	require.Len(t, entries, 2)
	assert.Equal(t, 120, entries[0].Duration)
	assert.Equal(t, parent.Start.AddMinutes(120), entries[1].Start)
}

func TestGenerateHourly_OracleDrivenParsesOffsets(t *testing.T) {
	parent := Entry{Start: gametime.Time{Day: 0, Hour: 8, Minute: 0}, Duration: 60, Activity: "tending the fields", Location: "the fields"}
	stub := &oracle.Stub{GenResponses: []any{map[string]any{
		"entries": []map[string]any{
			{"offset_minutes": 0, "duration_minutes": 20, "activity": "weeding", "location": "the fields"},
			{"offset_minutes": 20, "duration_minutes": 40, "activity": "watering", "location": "the fields"},
		},
	}}}
	entries := GenerateHourly(context.Background(), stub, parent)
	require.Len(t, entries, 2)
	assert.Equal(t, "weeding", entries[0].Activity)
	assert.Equal(t, parent.Start.AddMinutes(20), entries[1].Start)
}

func TestGenerateDetailed_OfflineSplitsBlockIntoFiveMinuteBeats(t *testing.T) {
	parent := Entry{Start: gametime.Time{Day: 0, Hour: 8, Minute: 0}, Duration: 12, Activity: "weeding", Location: "the fields"}
	entries := GenerateDetailed(context.Background(), oracle.Offline{}, parent)
	require.Len(t, entries, 3)
	assert.Equal(t, 5, entries[0].Duration)
	assert.Equal(t, 2, entries[2].Duration)
}

func TestSetHourly_ClearsDetailed(t *testing.T) {
	h := New()
	h.Detailed = []Entry{{Activity: "stale"}}
	h.SetHourly([]Entry{{Activity: "hourly"}})
	assert.Empty(t, h.Detailed)
	assert.Equal(t, "hourly", h.Hourly[0].Activity)
}
