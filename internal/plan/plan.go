// Package plan implements the three-level PlanHierarchy (daily, hourly,
// detailed) described in spec.md §4.4.
package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/thistlewood/emberfall/internal/gametime"
	"github.com/thistlewood/emberfall/internal/oracle"
)

// Entry is one slot of activity at any of the three levels.
type Entry struct {
	Start    gametime.Time
	Duration int // minutes
	Activity string
	Location string // building name, or "outdoors"
}

// end returns the game-time this entry elapses.
func (e Entry) end() gametime.Time { return e.Start.AddMinutes(e.Duration) }

// Hierarchy holds the daily plan and the caches for its two derived
// sub-levels. Owned exclusively by one AgentState (spec.md §3).
type Hierarchy struct {
	Daily    []Entry
	Hourly   []Entry
	Detailed []Entry

	dailyGeneratedDay int
	dailyValid        bool
}

// New returns an empty, stale Hierarchy.
func New() *Hierarchy {
	return &Hierarchy{dailyGeneratedDay: -1}
}

// IsStale reports whether the daily plan needs regeneration for the
// given game-day (spec.md §4.5 step 4).
func (h *Hierarchy) IsStale(day int) bool {
	return !h.dailyValid || h.dailyGeneratedDay != day
}

// HourlyProbability and DetailedProbability are the per-cycle chances
// of triggering sub-level decomposition (spec.md §4.5 step 4).
const (
	HourlyProbability   = 0.15
	DetailedProbability = 0.10
)

// ShouldDecomposeHourly rolls the hourly-decomposition probability.
func ShouldDecomposeHourly(rng *rand.Rand) bool { return rng.Float64() < HourlyProbability }

// ShouldDecomposeDetailed rolls the detailed-decomposition probability.
func ShouldDecomposeDetailed(rng *rand.Rand) bool { return rng.Float64() < DetailedProbability }

// CurrentActivity resolves "the latest entry whose start is <= now" at
// the finest available level (spec.md §4.4, §4.5 step 8).
func (h *Hierarchy) CurrentActivity(now gametime.Time) (Entry, bool) {
	if e, ok := latestAtOrBefore(h.Detailed, now); ok {
		return e, true
	}
	if e, ok := latestAtOrBefore(h.Hourly, now); ok {
		return e, true
	}
	return latestAtOrBefore(h.Daily, now)
}

func latestAtOrBefore(entries []Entry, now gametime.Time) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range entries {
		if !e.Start.Before(now.AddMinutes(1)) { // start <= now
			continue
		}
		if !found || best.Start.Before(e.Start) {
			best = e
			found = true
		}
	}
	return best, found
}

// SetDaily installs a freshly generated daily plan, invalidating both
// sub-levels (a fresh day has no hourly/detailed decomposition yet).
func (h *Hierarchy) SetDaily(entries []Entry, day int) {
	h.Daily = entries
	h.Hourly = nil
	h.Detailed = nil
	h.dailyGeneratedDay = day
	h.dailyValid = true
}

// SetHourly installs a freshly generated hourly decomposition, clearing
// the now-stale detailed cache beneath it.
func (h *Hierarchy) SetHourly(entries []Entry) {
	h.Hourly = entries
	h.Detailed = nil
}

// SetDetailed installs a freshly generated detailed decomposition.
func (h *Hierarchy) SetDetailed(entries []Entry) {
	h.Detailed = entries
}

// Replan regenerates the plan after a reaction (spec.md §4.4): entries
// whose start is before now are preserved, the remainder is replaced,
// and both sub-level caches are cleared.
func (h *Hierarchy) Replan(now gametime.Time, replacement []Entry) {
	var kept []Entry
	for _, e := range h.Daily {
		if e.Start.Before(now) {
			kept = append(kept, e)
		}
	}
	h.Daily = append(kept, replacement...)
	h.Hourly = nil
	h.Detailed = nil
}

type dailyJSON struct {
	Entries []struct {
		Start    string `json:"start"`
		Duration int    `json:"duration_minutes"`
		Activity string `json:"activity"`
		Location string `json:"location"`
	} `json:"entries"`
}

// GenerateDaily asks the oracle for a 5-8 entry daily plan spanning
// 06:00-22:00 of the given game-day (spec.md §4.4). Falls back to
// DefaultDaily when the oracle is unavailable or its response is
// malformed.
func GenerateDaily(ctx context.Context, o oracle.Oracle, occupation, personality string, day int) []Entry {
	if !o.HasAnyKey() {
		return DefaultDaily(occupation, day)
	}
	system := "You plan a single day for a character living in a small community. " +
		"Produce 5 to 8 entries between 06:00 and 22:00. Respond with JSON: " +
		`{"entries": [{"start": "HH:MM", "duration_minutes": N, "activity": "...", "location": "..."}]}`
	user := fmt.Sprintf("Occupation: %s. Personality: %s.", occupation, personality)
	resp, err := o.Generate(ctx, system, user, oracle.GenOpts{JSON: true, Temperature: 0.8, MaxTokens: 500})
	if err != nil {
		return DefaultDaily(occupation, day)
	}
	entries, err := decodeDaily(resp, day)
	if err != nil || len(entries) == 0 {
		return DefaultDaily(occupation, day)
	}
	return entries
}

func decodeDaily(v any, day int) ([]Entry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var parsed dailyJSON
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range parsed.Entries {
		var hh, mm int
		if _, err := fmt.Sscanf(e.Start, "%d:%d", &hh, &mm); err != nil {
			continue
		}
		loc := e.Location
		if loc == "" {
			loc = "outdoors"
		}
		out = append(out, Entry{
			Start:    gametime.Time{Day: day, Hour: hh, Minute: mm},
			Duration: e.Duration,
			Activity: e.Activity,
			Location: loc,
		})
	}
	return out, nil
}

// DefaultDaily is the fixed ten-slot offline fallback plan, keyed by
// occupation (spec.md §4.4).
func DefaultDaily(occupation string, day int) []Entry {
	work := workActivity(occupation)
	mk := func(h, m, dur int, activity, loc string) Entry {
		return Entry{Start: gametime.Time{Day: day, Hour: h, Minute: m}, Duration: dur, Activity: activity, Location: loc}
	}
	return []Entry{
		mk(6, 0, 30, "waking up", "home"),
		mk(6, 30, 30, "eating breakfast", "home"),
		mk(7, 0, 60, "walking to work", "outdoors"),
		mk(8, 0, 240, work, workLocation(occupation)),
		mk(12, 0, 60, "eating lunch", "outdoors"),
		mk(13, 0, 240, work, workLocation(occupation)),
		mk(17, 0, 60, "heading home", "outdoors"),
		mk(18, 0, 90, "eating dinner", "home"),
		mk(19, 30, 120, "relaxing", "outdoors"),
		mk(21, 30, 30, "getting ready for bed", "home"),
	}
}

type subJSON struct {
	Entries []struct {
		OffsetMinutes int    `json:"offset_minutes"`
		Duration      int    `json:"duration_minutes"`
		Activity      string `json:"activity"`
		Location      string `json:"location"`
	} `json:"entries"`
}

func decodeSub(v any, parent Entry) ([]Entry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var parsed subJSON
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range parsed.Entries {
		loc := e.Location
		if loc == "" {
			loc = parent.Location
		}
		out = append(out, Entry{
			Start:    parent.Start.AddMinutes(e.OffsetMinutes),
			Duration: e.Duration,
			Activity: e.Activity,
			Location: loc,
		})
	}
	return out, nil
}

// GenerateHourly decomposes parent — the currently active daily block —
// into 2-4 finer sub-entries spanning its timeframe (spec.md §4.4,
// "hourly blocks ... produced on demand"). Falls back to DefaultHourly
// when the oracle is unavailable or its response is malformed.
func GenerateHourly(ctx context.Context, o oracle.Oracle, parent Entry) []Entry {
	if !o.HasAnyKey() {
		return DefaultHourly(parent)
	}
	system := "You break one block of a character's day into 2 to 4 finer sub-activities " +
		"covering the full block. Respond with JSON: " +
		`{"entries": [{"offset_minutes": N, "duration_minutes": N, "activity": "...", "location": "..."}]}`
	user := fmt.Sprintf("Block: %q at %q, %d minutes starting %s.", parent.Activity, parent.Location, parent.Duration, parent.Start.Format("%H:%M"))
	resp, err := o.Generate(ctx, system, user, oracle.GenOpts{JSON: true, Temperature: 0.7, MaxTokens: 300})
	if err != nil {
		return DefaultHourly(parent)
	}
	entries, err := decodeSub(resp, parent)
	if err != nil || len(entries) == 0 {
		return DefaultHourly(parent)
	}
	return entries
}

// DefaultHourly is the offline fallback: it splits parent into two equal
// halves, since an exact sub-activity can't be invented without a
// generator.
func DefaultHourly(parent Entry) []Entry {
	if parent.Duration <= 0 {
		return nil
	}
	half := parent.Duration / 2
	if half == 0 {
		return []Entry{parent}
	}
	return []Entry{
		{Start: parent.Start, Duration: half, Activity: "starting " + parent.Activity, Location: parent.Location},
		{Start: parent.Start.AddMinutes(half), Duration: parent.Duration - half, Activity: parent.Activity, Location: parent.Location},
	}
}

// GenerateDetailed decomposes parent — the currently active block at
// whatever level planStep resolved it to — into 2-5 concrete-action
// entries (spec.md §4.4, "detailed actions ... produced on demand").
// Falls back to DefaultDetailed when the oracle is unavailable or its
// response is malformed.
func GenerateDetailed(ctx context.Context, o oracle.Oracle, parent Entry) []Entry {
	if !o.HasAnyKey() {
		return DefaultDetailed(parent)
	}
	system := "You break a short block of a character's activity into 2 to 5 concrete physical " +
		"actions covering the full block. Respond with JSON: " +
		`{"entries": [{"offset_minutes": N, "duration_minutes": N, "activity": "...", "location": "..."}]}`
	user := fmt.Sprintf("Block: %q at %q, %d minutes starting %s.", parent.Activity, parent.Location, parent.Duration, parent.Start.Format("%H:%M"))
	resp, err := o.Generate(ctx, system, user, oracle.GenOpts{JSON: true, Temperature: 0.7, MaxTokens: 300})
	if err != nil {
		return DefaultDetailed(parent)
	}
	entries, err := decodeSub(resp, parent)
	if err != nil || len(entries) == 0 {
		return DefaultDetailed(parent)
	}
	return entries
}

const detailedBeatMinutes = 5

// DefaultDetailed is the offline fallback: it splits parent into fixed
// five-minute beats of the same activity.
func DefaultDetailed(parent Entry) []Entry {
	if parent.Duration <= 0 {
		return nil
	}
	var out []Entry
	for offset := 0; offset < parent.Duration; offset += detailedBeatMinutes {
		dur := detailedBeatMinutes
		if offset+dur > parent.Duration {
			dur = parent.Duration - offset
		}
		out = append(out, Entry{Start: parent.Start.AddMinutes(offset), Duration: dur, Activity: parent.Activity, Location: parent.Location})
	}
	return out
}

func workActivity(occupation string) string {
	switch occupation {
	case "farmer":
		return "tending the fields"
	case "merchant":
		return "minding the stall"
	case "scholar":
		return "studying"
	default:
		return "working"
	}
}

func workLocation(occupation string) string {
	switch occupation {
	case "farmer":
		return "the fields"
	case "merchant":
		return "the market"
	case "scholar":
		return "the library"
	default:
		return "outdoors"
	}
}
