package gametime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_RendersCalendarStyleStamp(t *testing.T) {
	tm := Time{Day: 5, Hour: 14, Minute: 30}
	assert.Equal(t, "14:30", tm.Format("%H:%M"))
}

func TestFormat_DayOffsetAdvancesDate(t *testing.T) {
	a := Time{Day: 0, Hour: 0, Minute: 0}
	b := Time{Day: 1, Hour: 0, Minute: 0}
	assert.NotEqual(t, a.Format("%Y-%m-%d"), b.Format("%Y-%m-%d"))
}
