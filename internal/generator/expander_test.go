package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func TestExpandBuildsShiftFields(t *testing.T) {
	tmpl := everyDayTemplate(1, 10, "18:00:00", "07:00:00")
	tmpl.CrossesMidnight = true
	tmpl.BreakMinutes = 60
	tmpl.OptimalGuards = 0

	e := NewExpander(12*time.Hour, discardLogger())
	out := e.Expand([]*domain.ShiftTemplate{tmpl}, day(2025, 1, 4), day(2025, 1, 5), nil, NewDuplicateIndex(nil))
	require.Empty(t, out.Errors)
	require.Len(t, out.Accepted, 1)

	s := out.Accepted[0]
	assert.Equal(t, int32(13*60), s.TotalMinutes)
	assert.Equal(t, int32(12*60), s.WorkMinutes)
	assert.Equal(t, int32(60), s.BreakMinutes)
	assert.Equal(t, int32(2), s.RequiredGuards)
	assert.Equal(t, domain.ShiftTypeOvertime, s.ShiftType)
	assert.Equal(t, domain.ShiftStatusScheduled, s.Status)
	assert.True(t, s.IsSaturday)
	assert.False(t, s.IsWeekday)
	assert.Equal(t, 6, s.DayOfWeek)
	assert.Equal(t, 1, s.Quarter)
	assert.Equal(t, 5.0, s.DayHours)
	assert.Equal(t, 8.0, s.NightHours)
	assert.True(t, s.IsUnderstaffed)
	assert.Equal(t, time.Date(2025, 1, 5, 7, 0, 0, 0, ict), s.EndTime)
	assert.Equal(t, []int64{1}, out.Processed)
}

func TestExpandSkipsKnownKeys(t *testing.T) {
	tmpl := everyDayTemplate(1, 10, "06:00:00", "14:00:00")
	existing := domain.NewDedupKey(10, day(2025, 1, 2),
		time.Date(2025, 1, 2, 6, 0, 0, 0, ict), time.Date(2025, 1, 2, 14, 0, 0, 0, ict))

	index := NewDuplicateIndex([]domain.DedupKey{existing})
	e := NewExpander(12*time.Hour, discardLogger())
	out := e.Expand([]*domain.ShiftTemplate{tmpl}, day(2025, 1, 1), day(2025, 1, 4), nil, index)

	assert.Len(t, out.Accepted, 2)
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "2025-01-02", domain.DateKey(out.Skipped[0].Date))
	assert.Equal(t, SkipReasonAlreadyExists, out.Skipped[0].Reason)
	assert.Equal(t, 3, index.Len())
}

func TestExpandDeduplicatesAcrossTemplates(t *testing.T) {
	a := everyDayTemplate(1, 10, "06:00:00", "14:00:00")
	b := everyDayTemplate(2, 10, "06:00:00", "14:00:00")

	e := NewExpander(12*time.Hour, discardLogger())
	out := e.Expand([]*domain.ShiftTemplate{a, b}, day(2025, 1, 1), day(2025, 1, 3), nil, NewDuplicateIndex(nil))

	assert.Len(t, out.Accepted, 2)
	assert.Len(t, out.Skipped, 2)
	assert.Equal(t, []int64{1, 2}, out.Processed)
}

func TestExpandTreatsStartsDifferingInSecondsAsDistinct(t *testing.T) {
	a := everyDayTemplate(1, 10, "06:00:00", "14:00:00")
	b := everyDayTemplate(2, 10, "06:00:30", "14:00:00")

	e := NewExpander(12*time.Hour, discardLogger())
	out := e.Expand([]*domain.ShiftTemplate{a, b}, day(2025, 1, 1), day(2025, 1, 2), nil, NewDuplicateIndex(nil))

	assert.Len(t, out.Accepted, 2)
	assert.Empty(t, out.Skipped)
}

func TestExpandInvalidTemplateLeavesIndexUntouched(t *testing.T) {
	bad := everyDayTemplate(1, 10, "14:00:00", "06:00:00") // wraps without crossing midnight

	index := NewDuplicateIndex(nil)
	e := NewExpander(12*time.Hour, discardLogger())
	out := e.Expand([]*domain.ShiftTemplate{bad}, day(2025, 1, 1), day(2025, 1, 3), nil, index)

	require.Len(t, out.Errors, 1)
	assert.Equal(t, int64(1), out.Errors[0].TemplateID)
	assert.Empty(t, out.Accepted)
	assert.Empty(t, out.Processed)
	assert.Zero(t, index.Len())
}

func TestDuplicateIndexAdd(t *testing.T) {
	k := domain.DedupKey{LocationID: 1, Date: "2025-01-01", Start: "2025-01-01T06:00:00", End: "2025-01-01T14:00:00"}
	idx := NewDuplicateIndex(nil)
	assert.True(t, idx.Add(k))
	assert.False(t, idx.Add(k))
	assert.True(t, idx.Contains(k))
	assert.Equal(t, 1, idx.Len())
}
