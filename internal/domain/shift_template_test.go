package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOccurrencesMondayOnly(t *testing.T) {
	tmpl := &ShiftTemplate{AppliesMonday: true, EffectiveFrom: date(2024, 1, 1)}

	// 2025-01-06 is a Monday
	dates, err := tmpl.Occurrences(date(2025, 1, 6), date(2025, 1, 13))
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2025-01-06", DateKey(dates[0]))
}

func TestOccurrencesEffectiveWindow(t *testing.T) {
	to := date(2025, 1, 8)
	tmpl := &ShiftTemplate{
		AppliesMonday: true, AppliesTuesday: true, AppliesWednesday: true, AppliesThursday: true,
		AppliesFriday: true, AppliesSaturday: true, AppliesSunday: true,
		EffectiveFrom: date(2025, 1, 5),
		EffectiveTo:   &to,
	}

	dates, err := tmpl.Occurrences(date(2025, 1, 1), date(2025, 1, 31))
	require.NoError(t, err)
	require.Len(t, dates, 4)
	assert.Equal(t, "2025-01-05", DateKey(dates[0]))
	assert.Equal(t, "2025-01-08", DateKey(dates[3]))
}

func TestOccurrencesNoWeekdays(t *testing.T) {
	tmpl := &ShiftTemplate{EffectiveFrom: date(2025, 1, 1)}
	dates, err := tmpl.Occurrences(date(2025, 1, 1), date(2025, 2, 1))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestOccurrencesExcludesEndDate(t *testing.T) {
	tmpl := &ShiftTemplate{AppliesFriday: true, EffectiveFrom: date(2025, 1, 1)}

	// 2025-01-10 is a Friday and is the exclusive bound
	dates, err := tmpl.Occurrences(date(2025, 1, 4), date(2025, 1, 10))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestShiftWindowCrossesMidnight(t *testing.T) {
	tmpl := &ShiftTemplate{StartTime: "22:00:00", EndTime: "06:00:00", CrossesMidnight: true}

	start, end, err := tmpl.ShiftWindow(date(2025, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 31, 22, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 1, 6, 0, 0, 0, time.UTC), end)

	slot, err := tmpl.TimeSlotOn(date(2025, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, TimeSlotEvening, slot)
}

func TestShiftWindowInvalidClock(t *testing.T) {
	tmpl := &ShiftTemplate{StartTime: "25:99:00", EndTime: "06:00:00"}
	_, _, err := tmpl.ShiftWindow(date(2025, 1, 31))
	assert.Error(t, err)
}
