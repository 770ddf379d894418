package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTimeSlot(t *testing.T) {
	cases := []struct {
		hour int
		want TimeSlot
	}{
		{0, TimeSlotEvening},
		{5, TimeSlotEvening},
		{6, TimeSlotMorning},
		{13, TimeSlotMorning},
		{14, TimeSlotAfternoon},
		{21, TimeSlotAfternoon},
		{22, TimeSlotEvening},
		{23, TimeSlotEvening},
	}
	for _, c := range cases {
		start := time.Date(2025, 1, 10, c.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, c.want, ClassifyTimeSlot(start), "hour %d", c.hour)
	}
}

func TestConsecutiveConflict(t *testing.T) {
	slot, offset := TimeSlotMorning.ConsecutiveConflict()
	assert.Equal(t, TimeSlotEvening, slot)
	assert.Equal(t, -1, offset)

	slot, offset = TimeSlotAfternoon.ConsecutiveConflict()
	assert.Equal(t, TimeSlotMorning, slot)
	assert.Equal(t, 0, offset)

	slot, offset = TimeSlotEvening.ConsecutiveConflict()
	assert.Equal(t, TimeSlotAfternoon, slot)
	assert.Equal(t, 0, offset)

	assert.Panics(t, func() { TimeSlot("NIGHT").ConsecutiveConflict() })
}

func TestTimeSlotOrder(t *testing.T) {
	assert.Less(t, TimeSlotMorning.Order(), TimeSlotAfternoon.Order())
	assert.Less(t, TimeSlotAfternoon.Order(), TimeSlotEvening.Order())
	assert.Less(t, TimeSlotEvening.Order(), TimeSlot("NIGHT").Order())
}

func TestParseTimeSlot(t *testing.T) {
	slot, err := ParseTimeSlot("AFTERNOON")
	require.NoError(t, err)
	assert.Equal(t, TimeSlotAfternoon, slot)

	_, err = ParseTimeSlot("afternoon")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2025, 1, 30, 15, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)

	days := DaysBetween(from, to)
	require.Len(t, days, 3)
	assert.Equal(t, "2025-01-30", DateKey(days[0]))
	assert.Equal(t, "2025-02-01", DateKey(days[2]))

	assert.Len(t, DaysInclusive(from, to), 4)
	assert.Empty(t, DaysBetween(to, from))
}

func TestISOWeekday(t *testing.T) {
	assert.Equal(t, 1, ISOWeekday(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 7, ISOWeekday(time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)))
}

func TestDateIn(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	d := DateIn(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, "2025-03-01", DateKey(d))
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, 0, d.Hour())
}
