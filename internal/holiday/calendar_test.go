package holiday

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type fakeSource struct {
	holidays []domain.HolidayInfo
	err      error
	calls    int
	from, to time.Time
}

func (s *fakeSource) GetPublicHolidays(_ context.Context, from, to time.Time) ([]domain.HolidayInfo, error) {
	s.calls++
	s.from, s.to = from, to
	if s.err != nil {
		return nil, s.err
	}
	return s.holidays, nil
}

type mapCache struct {
	entries map[string]*domain.HolidayInfo
	err     error
	stored  int
}

func (c *mapCache) Lookup(_ context.Context, dates []time.Time) (map[string]*domain.HolidayInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]*domain.HolidayInfo)
	for _, d := range dates {
		if h, ok := c.entries[domain.DateKey(d)]; ok {
			out[domain.DateKey(d)] = h
		}
	}
	return out, nil
}

func (c *mapCache) Store(_ context.Context, dates []time.Time, holidays map[string]*domain.HolidayInfo) error {
	for _, d := range dates {
		c.entries[domain.DateKey(d)] = holidays[domain.DateKey(d)]
		c.stored++
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(d int) time.Time {
	return time.Date(2025, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestBatchCheckQueriesSourceOnce(t *testing.T) {
	src := &fakeSource{holidays: []domain.HolidayInfo{{Date: day(30), Name: "Reunification Day"}}}
	cal := NewCalendar(src, nil, time.Second, discardLogger())

	got := cal.BatchCheck(context.Background(), domain.DaysInclusive(day(1), day(30)))
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, day(1), src.from)
	assert.Equal(t, day(30), src.to)
	assert.Len(t, got, 1)
	assert.Equal(t, "Reunification Day", got["2025-04-30"].Name)
}

func TestBatchCheckDegradesOnFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	cal := NewCalendar(src, nil, time.Second, discardLogger())

	got := cal.BatchCheck(context.Background(), domain.DaysInclusive(day(1), day(7)))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBatchCheckUsesCache(t *testing.T) {
	src := &fakeSource{holidays: []domain.HolidayInfo{{Date: day(30), Name: "Reunification Day"}}}
	cache := &mapCache{entries: make(map[string]*domain.HolidayInfo)}
	cal := NewCalendar(src, cache, time.Second, discardLogger())

	dates := domain.DaysInclusive(day(28), day(30))
	first := cal.BatchCheck(context.Background(), dates)
	assert.Len(t, first, 1)
	assert.Equal(t, 3, cache.stored)

	second := cal.BatchCheck(context.Background(), dates)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)

	// only the uncached date reaches the source
	cal.BatchCheck(context.Background(), append(domain.DaysInclusive(day(29), day(30)), day(1)))
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, day(1), src.from)
	assert.Equal(t, day(1), src.to)
}

func TestBatchCheckFallsBackWhenCacheFails(t *testing.T) {
	src := &fakeSource{holidays: []domain.HolidayInfo{{Date: day(30), Name: "Reunification Day"}}}
	cache := &mapCache{entries: make(map[string]*domain.HolidayInfo), err: errors.New("redis down")}
	cal := NewCalendar(src, cache, time.Second, discardLogger())

	got := cal.BatchCheck(context.Background(), domain.DaysInclusive(day(29), day(30)))
	assert.Len(t, got, 1)
	assert.Equal(t, 1, src.calls)
}
