package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func (r *Repository) GetTeamWithMembers(ctx context.Context, teamID int64) (*domain.Team, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	team := &domain.Team{ID: teamID, Members: make([]domain.TeamMember, 0)}

	query := `SELECT name, is_active, created_at FROM teams WHERE id = $1`
	if err := r.dbpool.QueryRowContext(ctx, query, teamID).Scan(&team.Name, &team.IsActive, &team.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTeamNotFound
		}
		return nil, err
	}

	query = `
		SELECT tm.guard_id, tm.role, tm.is_active, g.full_name, g.employee_code, g.email
		FROM team_members tm
		JOIN guards g ON g.id = tm.guard_id
		WHERE tm.team_id = $1 AND tm.is_active AND g.is_active
		ORDER BY tm.role, tm.guard_id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		m := domain.TeamMember{TeamID: teamID}
		if err := rows.Scan(&m.GuardID, &m.Role, &m.IsActive, &m.FullName, &m.EmployeeCode, &m.Email); err != nil {
			return nil, err
		}
		team.Members = append(team.Members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return team, nil
}

func (r *Repository) GetTeamIDByName(ctx context.Context, name string) (int64, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT id FROM teams WHERE name = $1`, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrTeamNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *Repository) CreateTeam(ctx context.Context, team *domain.Team) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO teams (name, is_active)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.dbpool.QueryRowContext(ctx, query, team.Name, team.IsActive).Scan(&team.ID, &team.CreatedAt)
}

func (r *Repository) CreateGuard(ctx context.Context, g *domain.Guard) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO guards (full_name, employee_code, email, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, g.FullName, g.EmployeeCode, g.Email, g.IsActive).Scan(&g.ID)
}

func (r *Repository) GetGuardIDByEmployeeCode(ctx context.Context, code string) (int64, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, `SELECT id FROM guards WHERE employee_code = $1`, code).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) AddTeamMember(ctx context.Context, m *domain.TeamMember) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO team_members (team_id, guard_id, role, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, guard_id) DO UPDATE SET role = EXCLUDED.role, is_active = EXCLUDED.is_active
	`
	_, err := r.dbpool.ExecContext(ctx, query, m.TeamID, m.GuardID, string(m.Role), m.IsActive)
	return err
}

func (r *Repository) CreateLocation(ctx context.Context, l *domain.Location) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO locations (name, address, lat, lng)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, l.Name, l.Address, nullFloat64(l.Lat), nullFloat64(l.Lng)).Scan(&l.ID)
}
