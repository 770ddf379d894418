package generator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/utils"
)

const SkipReasonAlreadyExists = "already exists"

type TemplateError struct {
	TemplateID int64
	Err        error
}

func (e TemplateError) Error() string {
	return fmt.Sprintf("template %d: %v", e.TemplateID, e.Err)
}

type Expansion struct {
	Accepted []*domain.Shift
	Skipped  []domain.SkipReason
	Errors   []TemplateError
	// templates that expanded without error, whether or not they produced a shift
	Processed []int64
}

// Expander turns templates into candidate shifts. It never touches the database: holidays and
// existing shift keys are handed in pre-loaded.
type Expander struct {
	overtimeThreshold time.Duration
	logger            *slog.Logger
}

func NewExpander(overtimeThreshold time.Duration, logger *slog.Logger) *Expander {
	return &Expander{
		overtimeThreshold: overtimeThreshold,
		logger:            logger,
	}
}

// Expand walks every template over [from, to). A failing template is recorded and skipped;
// the rest of the run carries on.
func (e *Expander) Expand(templates []*domain.ShiftTemplate, from, to time.Time, holidays map[string]*domain.HolidayInfo, index *DuplicateIndex) *Expansion {
	out := &Expansion{
		Accepted:  make([]*domain.Shift, 0),
		Skipped:   make([]domain.SkipReason, 0),
		Errors:    make([]TemplateError, 0),
		Processed: make([]int64, 0, len(templates)),
	}

	for _, t := range templates {
		accepted, skipped, err := e.expandTemplate(t, from, to, holidays, index)
		if err != nil {
			e.logger.Warn("template expansion failed", "templateID", t.ID, "error", err)
			out.Errors = append(out.Errors, TemplateError{TemplateID: t.ID, Err: err})
			continue
		}

		for _, s := range accepted {
			index.Add(s.Key())
		}
		out.Accepted = append(out.Accepted, accepted...)
		out.Skipped = append(out.Skipped, skipped...)
		out.Processed = append(out.Processed, t.ID)
	}

	return out
}

// expandTemplate stages its keys locally so a template that fails halfway leaves the index untouched.
func (e *Expander) expandTemplate(t *domain.ShiftTemplate, from, to time.Time, holidays map[string]*domain.HolidayInfo, index *DuplicateIndex) ([]*domain.Shift, []domain.SkipReason, error) {
	if err := utils.ValidateShiftTemplate(t); err != nil {
		return nil, nil, err
	}

	dates, err := t.Occurrences(from, to)
	if err != nil {
		return nil, nil, err
	}

	accepted := make([]*domain.Shift, 0, len(dates))
	skipped := make([]domain.SkipReason, 0)
	staged := make(map[domain.DedupKey]struct{}, len(dates))

	for _, date := range dates {
		start, end, err := t.ShiftWindow(date)
		if err != nil {
			return nil, nil, err
		}

		key := domain.NewDedupKey(t.LocationID, date, start, end)
		_, dup := staged[key]
		if dup || index.Contains(key) {
			e.logger.Debug("shift already exists", "templateID", t.ID, "date", domain.DateKey(date))
			skipped = append(skipped, domain.SkipReason{
				Date:       date,
				LocationID: t.LocationID,
				TemplateID: t.ID,
				Reason:     SkipReasonAlreadyExists,
			})
			continue
		}

		staged[key] = struct{}{}
		accepted = append(accepted, e.buildShift(t, date, start, end, holidays[domain.DateKey(date)]))
	}

	return accepted, skipped, nil
}

func (e *Expander) buildShift(t *domain.ShiftTemplate, date, start, end time.Time, holiday *domain.HolidayInfo) *domain.Shift {
	templateID := t.ID
	total := int32(end.Sub(start).Minutes())
	breakMinutes := min(t.BreakMinutes, total)
	_, week := date.ISOWeek()
	dayHours, nightHours := domain.SplitDayNightHours(start, end)

	shiftType := domain.ShiftTypeRegular
	if end.Sub(start) > e.overtimeThreshold {
		shiftType = domain.ShiftTypeOvertime
	}

	s := &domain.Shift{
		ContractID:      t.ContractID,
		TemplateID:      &templateID,
		LocationID:      t.LocationID,
		LocationName:    t.LocationName,
		LocationAddress: t.LocationAddress,
		LocationLat:     t.LocationLat,
		LocationLng:     t.LocationLng,

		ShiftDate: date,
		Day:       date.Day(),
		Month:     int(date.Month()),
		Year:      date.Year(),
		Quarter:   (int(date.Month())-1)/3 + 1,
		ISOWeek:   week,
		DayOfWeek: domain.ISOWeekday(date),

		StartTime: start,
		EndTime:   end,

		TotalMinutes: total,
		WorkMinutes:  total - breakMinutes,
		BreakMinutes: breakMinutes,

		RequiredGuards: requiredGuards(t),

		IsWeekday:  date.Weekday() != time.Saturday && date.Weekday() != time.Sunday,
		IsSaturday: date.Weekday() == time.Saturday,
		IsSunday:   date.Weekday() == time.Sunday,

		DayHours:   dayHours,
		NightHours: nightHours,

		ShiftType: shiftType,
		Status:    domain.ShiftStatusScheduled,
	}

	if holiday != nil {
		s.IsPublicHoliday = true
		s.IsTetHoliday = holiday.IsTetHoliday
		s.HolidayName = holiday.Name
	}

	s.RecomputeStaffing()
	return s
}

// requiredGuards prefers the optimal headcount and falls back to the minimum.
func requiredGuards(t *domain.ShiftTemplate) int32 {
	switch {
	case t.OptimalGuards > 0:
		return t.OptimalGuards
	case t.MinGuards > 0:
		return t.MinGuards
	default:
		return 1
	}
}
