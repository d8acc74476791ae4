// Package gametime provides the day/hour/minute clock shared by every
// subsystem that stamps events in simulated time — memories, plans,
// frozen-field expiries, and the ticker itself. Keeping one conversion
// here is what makes MemoryStream's recency scoring consistent with the
// ticker's minute→hour cadence, as spec.md §4.1 requires.
package gametime

import "fmt"

// Time is a point in simulated time: day is 0-indexed, hour is [0,23],
// minute is [0,59].
type Time struct {
	Day    int
	Hour   int
	Minute int
}

// Zero is game-time day 0, 00:00.
var Zero = Time{}

// FromMinutes builds a Time from a total elapsed game-minute count.
func FromMinutes(totalMinutes int64) Time {
	if totalMinutes < 0 {
		totalMinutes = 0
	}
	day := totalMinutes / (24 * 60)
	rem := totalMinutes % (24 * 60)
	hour := rem / 60
	minute := rem % 60
	return Time{Day: int(day), Hour: int(hour), Minute: int(minute)}
}

// TotalMinutes returns the number of game-minutes since day 0, 00:00.
func (t Time) TotalMinutes() int64 {
	return int64(t.Day)*24*60 + int64(t.Hour)*60 + int64(t.Minute)
}

// AddMinutes returns a new Time offset by the given number of game-minutes
// (may be negative).
func (t Time) AddMinutes(minutes int) Time {
	return FromMinutes(t.TotalMinutes() + int64(minutes))
}

// SinceHours returns the number of game-hours (as a float) that have
// elapsed from earlier to t. Negative if earlier is after t.
func (t Time) SinceHours(earlier Time) float64 {
	return float64(t.TotalMinutes()-earlier.TotalMinutes()) / 60.0
}

// Before reports whether t is strictly earlier than other.
func (t Time) Before(other Time) bool {
	return t.TotalMinutes() < other.TotalMinutes()
}

// String renders "day D, HH:MM".
func (t Time) String() string {
	return fmt.Sprintf("day %d, %02d:%02d", t.Day, t.Hour, t.Minute)
}
