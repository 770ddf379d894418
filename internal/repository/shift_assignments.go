package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

func (r *Repository) GetGuardAssignments(ctx context.Context, filter domain.GuardAssignmentFilter) ([]domain.GuardAssignment, error) {
	if len(filter.GuardIDs) == 0 {
		return []domain.GuardAssignment{}, nil
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	p := newPredicates().
		add("sa.guard_id = ANY(?)", filter.GuardIDs).
		add("s.shift_date BETWEEN ? AND ?", domain.DateKey(filter.From), domain.DateKey(filter.To)).
		add("sa.status <> ALL(?)", domain.InactiveAssignmentStatuses).
		add("s.status <> ?", string(domain.ShiftStatusCancelled)).
		add("s.deleted_at IS NULL").
		addIf(filter.OtherContractsOnly, "s.contract_id IS NOT NULL").
		addIf(filter.OtherContractsOnly && filter.ExcludeContractID != nil, "s.contract_id <> ?", derefInt64(filter.ExcludeContractID))

	query := `
		SELECT
			sa.id,
			sa.shift_id,
			s.contract_id,
			sa.guard_id,
			g.full_name,
			g.employee_code,
			s.shift_date,
			s.start_time,
			s.end_time,
			s.location_id,
			s.location_name
		FROM shift_assignments sa
		JOIN shifts s ON s.id = sa.shift_id
		JOIN guards g ON g.id = sa.guard_id
		` + p.where() + `
		ORDER BY s.shift_date, s.start_time, sa.guard_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, p.arguments()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.GuardAssignment, 0)
	for rows.Next() {
		var (
			a          domain.GuardAssignment
			contractID sql.NullInt64
		)
		dst := []any{
			&a.AssignmentID,
			&a.ShiftID,
			&contractID,
			&a.GuardID,
			&a.GuardName,
			&a.EmployeeCode,
			&a.ShiftDate,
			&a.StartTime,
			&a.EndTime,
			&a.LocationID,
			&a.LocationName,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		a.ContractID = int64Ptr(contractID)
		a.ShiftDate = r.date(a.ShiftDate)
		a.StartTime = a.StartTime.In(r.loc)
		a.EndTime = a.EndTime.In(r.loc)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetActiveAssignmentGuardIDs(ctx context.Context, shiftID int64) ([]int64, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT guard_id
		FROM shift_assignments
		WHERE shift_id = $1 AND status <> ALL($2)
	`
	rows, err := r.dbpool.QueryContext(ctx, query, shiftID, domain.InactiveAssignmentStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SaveDayAssignments commits the staffing update, the assignment rows and their outbox events
// together.
func (r *Repository) SaveDayAssignments(ctx context.Context, shift *domain.Shift, assignments []*domain.TeamAssignment) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	version, err := updateShiftStaffing(ctx, tx, shift)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO shift_assignments (shift_id, guard_id, team_id, contract_id, assignment_type, status, assigned_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`
	for _, a := range assignments {
		params := []any{
			a.ShiftID,
			a.GuardID,
			nullInt64(a.TeamID),
			nullInt64(a.ContractID),
			string(a.AssignmentType),
			string(a.Status),
			nullInt64(a.AssignedBy),
			a.Notes,
		}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&a.ID, &a.CreatedAt, &a.Version); err != nil {
			return err
		}
	}

	now := time.Now()
	for _, a := range assignments {
		evt, err := domain.NewAssignmentOutboxEvent(domain.EventShiftAssignmentCreated, shift, a, now)
		if err != nil {
			return err
		}
		if err := insertOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	shift.Version = version
	return nil
}

func (r *Repository) GetAssignmentByID(ctx context.Context, id int64) (*domain.TeamAssignment, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			sa.id,
			sa.shift_id,
			sa.guard_id,
			sa.team_id,
			sa.contract_id,
			sa.assignment_type,
			sa.status,
			sa.assigned_by,
			sa.notes,
			sa.notification_sent,
			sa.attendance_synced,
			sa.cancelled_at,
			sa.cancellation_reason,
			sa.created_at,
			sa.version,
			g.full_name,
			g.email
		FROM shift_assignments sa
		JOIN guards g ON g.id = sa.guard_id
		WHERE sa.id = $1
	`

	var (
		a                              domain.TeamAssignment
		teamID, contractID, assignedBy sql.NullInt64
		cancelledAt                    sql.NullTime
	)
	dst := []any{
		&a.ID,
		&a.ShiftID,
		&a.GuardID,
		&teamID,
		&contractID,
		&a.AssignmentType,
		&a.Status,
		&assignedBy,
		&a.Notes,
		&a.NotificationSent,
		&a.AttendanceSynced,
		&cancelledAt,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.Version,
		&a.GuardName,
		&a.GuardEmail,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}

	a.TeamID = int64Ptr(teamID)
	a.ContractID = int64Ptr(contractID)
	a.AssignedBy = int64Ptr(assignedBy)
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	return &a, nil
}

// CancelAssignment commits the cancellation, the staffing update and the cancellation event
// together.
func (r *Repository) CancelAssignment(ctx context.Context, shift *domain.Shift, a *domain.TeamAssignment) error {
	ctx, cancel := r.txContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE shift_assignments
		SET status = $1, cancelled_at = NOW(), cancellation_reason = $2, version = version + 1
		WHERE id = $3 AND status <> ALL($4)
		RETURNING cancelled_at, version
	`
	var (
		cancelledAt       time.Time
		assignmentVersion int32
	)
	params := []any{string(domain.AssignmentStatusCancelled), a.CancellationReason, a.ID, domain.InactiveAssignmentStatuses}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&cancelledAt, &assignmentVersion); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAssignmentInactive
		}
		return err
	}

	version, err := updateShiftStaffing(ctx, tx, shift)
	if err != nil {
		return err
	}

	evt, err := domain.NewAssignmentOutboxEvent(domain.EventShiftAssignmentCancelled, shift, a, cancelledAt)
	if err != nil {
		return err
	}
	if err := insertOutboxEvent(ctx, tx, evt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	a.Status = domain.AssignmentStatusCancelled
	a.CancelledAt = &cancelledAt
	a.Version = assignmentVersion
	shift.Version = version
	return nil
}
