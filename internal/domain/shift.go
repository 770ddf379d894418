package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Shift struct {
	ID         int64  `json:"id"`
	ContractID *int64 `json:"contractID"`
	TemplateID *int64 `json:"templateID"`

	LocationID      int64    `json:"locationID"`
	LocationName    string   `json:"locationName"`
	LocationAddress string   `json:"locationAddress"`
	LocationLat     *float64 `json:"locationLat"`
	LocationLng     *float64 `json:"locationLng"`

	ShiftDate time.Time `json:"shiftDate"`
	Day       int       `json:"day"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Quarter   int       `json:"quarter"`
	ISOWeek   int       `json:"isoWeek"`
	DayOfWeek int       `json:"dayOfWeek"` // 1 = Monday ... 7 = Sunday

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	TotalMinutes int32 `json:"totalMinutes"`
	WorkMinutes  int32 `json:"workMinutes"`
	BreakMinutes int32 `json:"breakMinutes"`

	RequiredGuards  int32 `json:"requiredGuards"`
	AssignedGuards  int32 `json:"assignedGuards"`
	ConfirmedGuards int32 `json:"confirmedGuards"`
	CheckedInGuards int32 `json:"checkedInGuards"`
	CompletedGuards int32 `json:"completedGuards"`

	StaffingPercentage float64 `json:"staffingPercentage"`
	IsFullyStaffed     bool    `json:"isFullyStaffed"`
	IsUnderstaffed     bool    `json:"isUnderstaffed"`
	IsOverstaffed      bool    `json:"isOverstaffed"`

	IsWeekday       bool   `json:"isWeekday"`
	IsSaturday      bool   `json:"isSaturday"`
	IsSunday        bool   `json:"isSunday"`
	IsPublicHoliday bool   `json:"isPublicHoliday"`
	IsTetHoliday    bool   `json:"isTetHoliday"`
	HolidayName     string `json:"holidayName"`

	DayHours   float64 `json:"dayHours"`
	NightHours float64 `json:"nightHours"`

	ShiftType ShiftType   `json:"shiftType"`
	Status    ShiftStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Version   int32       `json:"-"`
}

// DedupKey identifies a unique shift instance.
type DedupKey struct {
	LocationID int64
	Date       string
	Start      string
	End        string
}

const dedupClockLayout = "2006-01-02T15:04:05"

func NewDedupKey(locationID int64, date, start, end time.Time) DedupKey {
	return DedupKey{
		LocationID: locationID,
		Date:       DateKey(date),
		Start:      start.Format(dedupClockLayout),
		End:        end.Format(dedupClockLayout),
	}
}

func (s *Shift) Key() DedupKey {
	return NewDedupKey(s.LocationID, s.ShiftDate, s.StartTime, s.EndTime)
}

func (s *Shift) TimeSlot() TimeSlot {
	return ClassifyTimeSlot(s.StartTime)
}

func (s *Shift) TimeRange() string {
	return s.StartTime.Format("15:04") + "-" + s.EndTime.Format("15:04")
}

var hundred = decimal.NewFromInt(100)

// RecomputeStaffing derives the percentage and the staffing flags from the counters.
func (s *Shift) RecomputeStaffing() {
	if s.RequiredGuards <= 0 {
		s.StaffingPercentage = 0
		s.IsFullyStaffed = s.AssignedGuards >= s.RequiredGuards
		s.IsUnderstaffed = false
		s.IsOverstaffed = s.AssignedGuards > s.RequiredGuards
		return
	}

	pct := decimal.NewFromInt32(s.AssignedGuards).
		Div(decimal.NewFromInt32(s.RequiredGuards)).
		Mul(hundred).
		Round(2)
	s.StaffingPercentage = pct.InexactFloat64()
	s.IsFullyStaffed = s.AssignedGuards >= s.RequiredGuards
	s.IsUnderstaffed = s.AssignedGuards < s.RequiredGuards
	s.IsOverstaffed = s.AssignedGuards > s.RequiredGuards
}

// Night work runs from 22:00 to 06:00.
const (
	nightStartHour = 22
	nightEndHour   = 6
)

// SplitDayNightHours splits [start, end) into day and night hours, rounded to 2 dp.
func SplitDayNightHours(start, end time.Time) (float64, float64) {
	if !end.After(start) {
		return 0, 0
	}

	var night time.Duration
	for day := StartOfDay(start).AddDate(0, 0, -1); day.Before(end); day = day.AddDate(0, 0, 1) {
		nStart := time.Date(day.Year(), day.Month(), day.Day(), nightStartHour, 0, 0, 0, day.Location())
		nEnd := time.Date(day.Year(), day.Month(), day.Day()+1, nightEndHour, 0, 0, 0, day.Location())
		night += overlap(start, end, nStart, nEnd)
	}
	total := end.Sub(start)

	nightHours := decimal.NewFromFloat(night.Hours()).Round(2)
	dayHours := decimal.NewFromFloat((total - night).Hours()).Round(2)
	return dayHours.InexactFloat64(), nightHours.InexactFloat64()
}

func overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}
