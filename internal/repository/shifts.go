package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

const shiftColumns = `
	s.id,
	s.contract_id,
	s.template_id,
	s.location_id,
	s.location_name,
	s.location_address,
	s.location_lat,
	s.location_lng,
	s.shift_date,
	s.day,
	s.month,
	s.year,
	s.quarter,
	s.iso_week,
	s.day_of_week,
	s.start_time,
	s.end_time,
	s.total_minutes,
	s.work_minutes,
	s.break_minutes,
	s.required_guards,
	s.assigned_guards,
	s.confirmed_guards,
	s.checked_in_guards,
	s.completed_guards,
	s.staffing_percentage,
	s.is_fully_staffed,
	s.is_understaffed,
	s.is_overstaffed,
	s.is_weekday,
	s.is_saturday,
	s.is_sunday,
	s.is_public_holiday,
	s.is_tet_holiday,
	s.holiday_name,
	s.day_hours,
	s.night_hours,
	s.shift_type,
	s.status,
	s.created_at,
	s.version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanShift(row rowScanner) (*domain.Shift, error) {
	var (
		s                              domain.Shift
		contractID, templateID         sql.NullInt64
		lat, lng                       sql.NullFloat64
		staffing, dayHours, nightHours decimal.Decimal
	)
	dst := []any{
		&s.ID,
		&contractID,
		&templateID,
		&s.LocationID,
		&s.LocationName,
		&s.LocationAddress,
		&lat,
		&lng,
		&s.ShiftDate,
		&s.Day,
		&s.Month,
		&s.Year,
		&s.Quarter,
		&s.ISOWeek,
		&s.DayOfWeek,
		&s.StartTime,
		&s.EndTime,
		&s.TotalMinutes,
		&s.WorkMinutes,
		&s.BreakMinutes,
		&s.RequiredGuards,
		&s.AssignedGuards,
		&s.ConfirmedGuards,
		&s.CheckedInGuards,
		&s.CompletedGuards,
		&staffing,
		&s.IsFullyStaffed,
		&s.IsUnderstaffed,
		&s.IsOverstaffed,
		&s.IsWeekday,
		&s.IsSaturday,
		&s.IsSunday,
		&s.IsPublicHoliday,
		&s.IsTetHoliday,
		&s.HolidayName,
		&dayHours,
		&nightHours,
		&s.ShiftType,
		&s.Status,
		&s.CreatedAt,
		&s.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	s.ContractID = int64Ptr(contractID)
	s.TemplateID = int64Ptr(templateID)
	s.LocationLat = float64Ptr(lat)
	s.LocationLng = float64Ptr(lng)
	s.ShiftDate = r.date(s.ShiftDate)
	s.StartTime = s.StartTime.In(r.loc)
	s.EndTime = s.EndTime.In(r.loc)
	s.StaffingPercentage = staffing.InexactFloat64()
	s.DayHours = dayHours.InexactFloat64()
	s.NightHours = nightHours.InexactFloat64()
	return &s, nil
}

var shiftInsertColumns = []string{
	"contract_id", "template_id", "location_id", "location_name", "location_address", "location_lat", "location_lng",
	"shift_date", "day", "month", "year", "quarter", "iso_week", "day_of_week",
	"start_time", "end_time", "total_minutes", "work_minutes", "break_minutes",
	"required_guards", "assigned_guards", "staffing_percentage", "is_fully_staffed", "is_understaffed", "is_overstaffed",
	"is_weekday", "is_saturday", "is_sunday", "is_public_holiday", "is_tet_holiday", "holiday_name",
	"day_hours", "night_hours", "shift_type", "status",
}

func shiftInsertValues(s *domain.Shift) []any {
	return []any{
		nullInt64(s.ContractID), nullInt64(s.TemplateID), s.LocationID, s.LocationName, s.LocationAddress,
		nullFloat64(s.LocationLat), nullFloat64(s.LocationLng),
		domain.DateKey(s.ShiftDate), s.Day, s.Month, s.Year, s.Quarter, s.ISOWeek, s.DayOfWeek,
		s.StartTime, s.EndTime, s.TotalMinutes, s.WorkMinutes, s.BreakMinutes,
		s.RequiredGuards, s.AssignedGuards, decimal.NewFromFloat(s.StaffingPercentage),
		s.IsFullyStaffed, s.IsUnderstaffed, s.IsOverstaffed,
		s.IsWeekday, s.IsSaturday, s.IsSunday, s.IsPublicHoliday, s.IsTetHoliday, s.HolidayName,
		decimal.NewFromFloat(s.DayHours), decimal.NewFromFloat(s.NightHours), string(s.ShiftType), string(s.Status),
	}
}

// InsertShifts writes one batch as a single multi-row insert in its own transaction. Rows that
// hit the dedup index are dropped by ON CONFLICT and keep ID 0.
func (r *Repository) InsertShifts(ctx context.Context, shifts []*domain.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	cols := len(shiftInsertColumns)
	rowsSQL := make([]string, 0, len(shifts))
	params := make([]any, 0, len(shifts)*cols)
	byKey := make(map[domain.DedupKey]*domain.Shift, len(shifts))
	for i, s := range shifts {
		placeholders := make([]string, cols)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", i*cols+c+1)
		}
		rowsSQL = append(rowsSQL, "("+strings.Join(placeholders, ", ")+")")
		params = append(params, shiftInsertValues(s)...)
		byKey[s.Key()] = s
	}

	query := `
		INSERT INTO shifts (` + strings.Join(shiftInsertColumns, ", ") + `)
		VALUES ` + strings.Join(rowsSQL, ",\n") + `
		ON CONFLICT DO NOTHING
		RETURNING id, location_id, shift_date, start_time, end_time, created_at, version
	`

	rows, err := tx.QueryContext(ctx, query, params...)
	if err != nil {
		return err
	}
	defer rows.Close()

	inserted := make(map[*domain.Shift]struct {
		id        int64
		createdAt time.Time
		version   int32
	}, len(shifts))
	for rows.Next() {
		var (
			id, locationID   int64
			date, start, end time.Time
			createdAt        time.Time
			version          int32
		)
		if err := rows.Scan(&id, &locationID, &date, &start, &end, &createdAt, &version); err != nil {
			return err
		}
		key := domain.NewDedupKey(locationID, r.date(date), start.In(r.loc), end.In(r.loc))
		s, ok := byKey[key]
		if !ok {
			return fmt.Errorf("inserted shift %d does not match any candidate", id)
		}
		inserted[s] = struct {
			id        int64
			createdAt time.Time
			version   int32
		}{id, createdAt, version}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return err
	}

	for s, row := range inserted {
		s.ID = row.id
		s.CreatedAt = row.createdAt
		s.Version = row.version
	}
	return nil
}

func (r *Repository) GetShiftKeys(ctx context.Context, locationIDs []int64, from, to time.Time) ([]domain.DedupKey, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT location_id, shift_date, start_time, end_time
		FROM shifts
		WHERE location_id = ANY($1)
			AND shift_date >= $2
			AND shift_date < $3
			AND status <> $4
			AND deleted_at IS NULL
	`
	params := []any{locationIDs, domain.DateKey(from), domain.DateKey(to), string(domain.ShiftStatusCancelled)}

	rows, err := r.dbpool.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]domain.DedupKey, 0)
	for rows.Next() {
		var (
			locationID       int64
			date, start, end time.Time
		)
		if err := rows.Scan(&locationID, &date, &start, &end); err != nil {
			return nil, err
		}
		keys = append(keys, domain.NewDedupKey(locationID, r.date(date), start.In(r.loc), end.In(r.loc)))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *Repository) GetShiftsAtLocation(ctx context.Context, locationID int64, date time.Time, contractID *int64) ([]*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := newPredicates().
		add("s.location_id = ?", locationID).
		add("s.shift_date = ?", domain.DateKey(date)).
		add("s.status <> ?", string(domain.ShiftStatusCancelled)).
		add("s.deleted_at IS NULL").
		addIf(contractID != nil, "s.contract_id = ?", derefInt64(contractID))

	query := `SELECT ` + shiftColumns + ` FROM shifts s ` + p.where() + ` ORDER BY s.start_time, s.id`

	rows, err := r.dbpool.QueryContext(ctx, query, p.arguments()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]*domain.Shift, 0)
	for rows.Next() {
		s, err := r.scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *Repository) GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + shiftColumns + ` FROM shifts s WHERE s.id = $1 AND s.deleted_at IS NULL`
	return r.scanShift(r.dbpool.QueryRowContext(ctx, query, id))
}

// updateShiftStaffing writes the staffing counters if the row still has shift.Version and
// returns the new version.
func updateShiftStaffing(ctx context.Context, tx *sql.Tx, shift *domain.Shift) (int32, error) {
	query := `
		UPDATE shifts
		SET assigned_guards = $1,
			staffing_percentage = $2,
			is_fully_staffed = $3,
			is_understaffed = $4,
			is_overstaffed = $5,
			updated_at = NOW(),
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`
	params := []any{
		shift.AssignedGuards,
		decimal.NewFromFloat(shift.StaffingPercentage),
		shift.IsFullyStaffed,
		shift.IsUnderstaffed,
		shift.IsOverstaffed,
		shift.ID,
		shift.Version,
	}

	var version int32
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrVersionConflict
		}
		return 0, err
	}
	return version, nil
}
