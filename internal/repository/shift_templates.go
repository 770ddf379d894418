package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

const templateColumns = `
	st.id,
	st.contract_id,
	st.team_id,
	st.name,
	st.location_id,
	l.name,
	l.address,
	l.lat,
	l.lng,
	to_char(st.start_time, 'HH24:MI:SS'),
	to_char(st.end_time, 'HH24:MI:SS'),
	st.crosses_midnight,
	st.break_minutes,
	st.applies_monday,
	st.applies_tuesday,
	st.applies_wednesday,
	st.applies_thursday,
	st.applies_friday,
	st.applies_saturday,
	st.applies_sunday,
	st.effective_from,
	st.effective_to,
	st.min_guards,
	st.max_guards,
	st.optimal_guards,
	st.status,
	st.is_active,
	st.created_at,
	st.version
`

func (r *Repository) scanTemplates(rows *sql.Rows) ([]*domain.ShiftTemplate, error) {
	templates := make([]*domain.ShiftTemplate, 0)
	for rows.Next() {
		var (
			t           domain.ShiftTemplate
			contractID  sql.NullInt64
			teamID      sql.NullInt64
			lat, lng    sql.NullFloat64
			effectiveTo sql.NullTime
		)
		dst := []any{
			&t.ID,
			&contractID,
			&teamID,
			&t.Name,
			&t.LocationID,
			&t.LocationName,
			&t.LocationAddress,
			&lat,
			&lng,
			&t.StartTime,
			&t.EndTime,
			&t.CrossesMidnight,
			&t.BreakMinutes,
			&t.AppliesMonday,
			&t.AppliesTuesday,
			&t.AppliesWednesday,
			&t.AppliesThursday,
			&t.AppliesFriday,
			&t.AppliesSaturday,
			&t.AppliesSunday,
			&t.EffectiveFrom,
			&effectiveTo,
			&t.MinGuards,
			&t.MaxGuards,
			&t.OptimalGuards,
			&t.Status,
			&t.IsActive,
			&t.CreatedAt,
			&t.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		t.ContractID = int64Ptr(contractID)
		t.TeamID = int64Ptr(teamID)
		t.LocationLat = float64Ptr(lat)
		t.LocationLng = float64Ptr(lng)
		t.EffectiveFrom = r.date(t.EffectiveFrom)
		if effectiveTo.Valid {
			to := r.date(effectiveTo.Time)
			t.EffectiveTo = &to
		}
		templates = append(templates, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *Repository) GetActiveTemplates(ctx context.Context, contractID int64, templateIDs []int64) ([]*domain.ShiftTemplate, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := newPredicates().
		add("st.is_active").
		add("st.contract_id = ?", contractID).
		addIf(len(templateIDs) > 0, "st.id = ANY(?)", templateIDs)

	query := `SELECT ` + templateColumns + `
		FROM shift_templates st
		JOIN locations l ON l.id = st.location_id
		` + p.where() + `
		ORDER BY st.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, p.arguments()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTemplates(rows)
}

func (r *Repository) GetTeamTemplatesOfOtherContracts(ctx context.Context, teamID int64, excludeContractID *int64, from, to time.Time) ([]*domain.ShiftTemplate, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := newPredicates().
		add("st.is_active").
		add("st.team_id = ?", teamID).
		add("st.contract_id IS NOT NULL").
		addIf(excludeContractID != nil, "st.contract_id <> ?", derefInt64(excludeContractID)).
		add("st.effective_from <= ?", domain.DateKey(to)).
		add("(st.effective_to IS NULL OR st.effective_to >= ?)", domain.DateKey(from))

	query := `SELECT ` + templateColumns + `
		FROM shift_templates st
		JOIN locations l ON l.id = st.location_id
		` + p.where() + `
		ORDER BY st.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, p.arguments()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTemplates(rows)
}

func (r *Repository) MarkTemplatesShiftCreated(ctx context.Context, templateIDs []int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		UPDATE shift_templates
		SET status = $1, version = version + 1
		WHERE id = ANY($2) AND status <> $1
	`
	_, err := r.dbpool.ExecContext(ctx, query, string(domain.TemplateStatusShiftCreated), templateIDs)
	return err
}

func (r *Repository) CreateShiftTemplate(ctx context.Context, t *domain.ShiftTemplate) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if t.Status == "" {
		t.Status = domain.TemplateStatusAwaitingShiftCreation
	}

	var effectiveTo sql.NullString
	if t.EffectiveTo != nil {
		effectiveTo = sql.NullString{String: domain.DateKey(*t.EffectiveTo), Valid: true}
	}

	query := `
		INSERT INTO shift_templates (
			contract_id, team_id, name, location_id, start_time, end_time, crosses_midnight, break_minutes,
			applies_monday, applies_tuesday, applies_wednesday, applies_thursday, applies_friday,
			applies_saturday, applies_sunday, effective_from, effective_to,
			min_guards, max_guards, optimal_guards, status, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, version
	`
	params := []any{
		nullInt64(t.ContractID),
		nullInt64(t.TeamID),
		t.Name,
		t.LocationID,
		t.StartTime,
		t.EndTime,
		t.CrossesMidnight,
		t.BreakMinutes,
		t.AppliesMonday,
		t.AppliesTuesday,
		t.AppliesWednesday,
		t.AppliesThursday,
		t.AppliesFriday,
		t.AppliesSaturday,
		t.AppliesSunday,
		domain.DateKey(t.EffectiveFrom),
		effectiveTo,
		t.MinGuards,
		t.MaxGuards,
		t.OptimalGuards,
		string(t.Status),
		t.IsActive,
	}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&t.ID, &t.CreatedAt, &t.Version)
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
