package gametime

import (
	"time"

	"github.com/ncruces/go-strftime"
)

// epoch anchors Time's Day/Hour/Minute onto a real time.Time so strftime
// layouts can render it; only the calendar offset from this anchor
// matters, never the absolute date.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// asClock maps a game Time onto a real time.Time at the same day/hour/
// minute offset from epoch, so layout-based formatting libraries can
// render it directly.
func (t Time) asClock() time.Time {
	return epoch.AddDate(0, 0, t.Day).Add(time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute)
}

// Format renders t using a strftime layout, mirroring the teacher's
// real-time log-stamping habit but applied to game time (e.g.
// "%m/%d %H:%M" for a calendar-style day/hour:minute stamp).
func (t Time) Format(layout string) string {
	return strftime.Format(layout, t.asClock())
}
