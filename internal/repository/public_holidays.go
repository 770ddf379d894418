package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func (r *Repository) GetPublicHolidays(ctx context.Context, from, to time.Time) ([]domain.HolidayInfo, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT holiday_date, name, is_tet
		FROM public_holidays
		WHERE holiday_date BETWEEN $1 AND $2
		ORDER BY holiday_date
	`
	rows, err := r.dbpool.QueryContext(ctx, query, domain.DateKey(from), domain.DateKey(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := make([]domain.HolidayInfo, 0)
	for rows.Next() {
		var h domain.HolidayInfo
		if err := rows.Scan(&h.Date, &h.Name, &h.IsTetHoliday); err != nil {
			return nil, err
		}
		h.Date = r.date(h.Date)
		holidays = append(holidays, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holidays, nil
}

func (r *Repository) UpsertPublicHoliday(ctx context.Context, h *domain.HolidayInfo) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO public_holidays (holiday_date, name, is_tet)
		VALUES ($1, $2, $3)
		ON CONFLICT (holiday_date) DO UPDATE SET name = EXCLUDED.name, is_tet = EXCLUDED.is_tet
	`
	_, err := r.dbpool.ExecContext(ctx, query, domain.DateKey(h.Date), h.Name, h.IsTetHoliday)
	return err
}
