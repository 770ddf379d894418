package domain

import (
	"time"

	"github.com/teambition/rrule-go"
)

type ShiftTemplate struct {
	ID         int64  `json:"id"`
	ContractID *int64 `json:"contractID"`
	TeamID     *int64 `json:"teamID"` // team auto-assigned to every generated shift
	Name       string `json:"name"`

	LocationID      int64    `json:"locationID"`
	LocationName    string   `json:"locationName"`
	LocationAddress string   `json:"locationAddress"`
	LocationLat     *float64 `json:"locationLat"`
	LocationLng     *float64 `json:"locationLng"`

	StartTime       string `json:"startTime"` // 15:04:05
	EndTime         string `json:"endTime"`
	CrossesMidnight bool   `json:"crossesMidnight"`
	BreakMinutes    int32  `json:"breakMinutes"`

	AppliesMonday    bool `json:"appliesMonday"`
	AppliesTuesday   bool `json:"appliesTuesday"`
	AppliesWednesday bool `json:"appliesWednesday"`
	AppliesThursday  bool `json:"appliesThursday"`
	AppliesFriday    bool `json:"appliesFriday"`
	AppliesSaturday  bool `json:"appliesSaturday"`
	AppliesSunday    bool `json:"appliesSunday"`

	EffectiveFrom time.Time  `json:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo"`

	MinGuards     int32 `json:"minGuards"`
	MaxGuards     int32 `json:"maxGuards"`
	OptimalGuards int32 `json:"optimalGuards"`

	Status    TemplateStatus `json:"status"`
	IsActive  bool           `json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	Version   int32          `json:"-"`
}

func (t *ShiftTemplate) AppliesOn(wd time.Weekday) bool {
	switch wd {
	case time.Monday:
		return t.AppliesMonday
	case time.Tuesday:
		return t.AppliesTuesday
	case time.Wednesday:
		return t.AppliesWednesday
	case time.Thursday:
		return t.AppliesThursday
	case time.Friday:
		return t.AppliesFriday
	case time.Saturday:
		return t.AppliesSaturday
	case time.Sunday:
		return t.AppliesSunday
	}
	return false
}

func (t *ShiftTemplate) rruleWeekdays() []rrule.Weekday {
	days := make([]rrule.Weekday, 0, 7)
	pairs := []struct {
		on bool
		wd rrule.Weekday
	}{
		{t.AppliesMonday, rrule.MO},
		{t.AppliesTuesday, rrule.TU},
		{t.AppliesWednesday, rrule.WE},
		{t.AppliesThursday, rrule.TH},
		{t.AppliesFriday, rrule.FR},
		{t.AppliesSaturday, rrule.SA},
		{t.AppliesSunday, rrule.SU},
	}
	for _, p := range pairs {
		if p.on {
			days = append(days, p.wd)
		}
	}
	return days
}

// Occurrences lists the dates in [from, to) on which the template produces a shift: the
// weekday flag is set and the date lies inside the effective window (both ends inclusive).
func (t *ShiftTemplate) Occurrences(from, to time.Time) ([]time.Time, error) {
	loc := from.Location()
	start := StartOfDay(from)
	last := StartOfDay(to).AddDate(0, 0, -1)

	effFrom := DateIn(t.EffectiveFrom, loc)
	if !t.EffectiveFrom.IsZero() && effFrom.After(start) {
		start = effFrom
	}
	if t.EffectiveTo != nil {
		effTo := DateIn(*t.EffectiveTo, loc)
		if effTo.Before(last) {
			last = effTo
		}
	}

	weekdays := t.rruleWeekdays()
	if len(weekdays) == 0 || last.Before(start) {
		return nil, nil
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start,
		Until:     last,
		Byweekday: weekdays,
	})
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

// ShiftWindow returns the absolute start and end of the occurrence on date.
func (t *ShiftTemplate) ShiftWindow(date time.Time) (time.Time, time.Time, error) {
	start, err := AtClock(date, t.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endDate := date
	if t.CrossesMidnight {
		endDate = date.AddDate(0, 0, 1)
	}
	end, err := AtClock(endDate, t.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// TimeSlotOn classifies the template's start time when placed on date.
func (t *ShiftTemplate) TimeSlotOn(date time.Time) (TimeSlot, error) {
	start, err := AtClock(date, t.StartTime)
	if err != nil {
		return "", err
	}
	return ClassifyTimeSlot(start), nil
}
