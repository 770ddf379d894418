package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/utils"
)

type Store interface {
	conflict.CrossContractStore

	// GetTeamWithMembers returns domain.ErrTeamNotFound for an unknown team. Members holds the
	// active members only.
	GetTeamWithMembers(ctx context.Context, teamID int64) (*domain.Team, error)
	// GetShiftsAtLocation returns the non-cancelled shifts at the location on date, ordered by
	// start time. A nil contractID matches any contract.
	GetShiftsAtLocation(ctx context.Context, locationID int64, date time.Time, contractID *int64) ([]*domain.Shift, error)
	GetShiftByID(ctx context.Context, id int64) (*domain.Shift, error)
	GetActiveAssignmentGuardIDs(ctx context.Context, shiftID int64) ([]int64, error)

	// SaveDayAssignments writes the shift counters (conditional on shift.Version), the new
	// assignment rows and one outbox event per assignment in one transaction. On success the
	// assignments carry their IDs and shift.Version is the new version. A stale version
	// yields domain.ErrVersionConflict and nothing is written.
	SaveDayAssignments(ctx context.Context, shift *domain.Shift, assignments []*domain.TeamAssignment) error

	GetAssignmentByID(ctx context.Context, id int64) (*domain.TeamAssignment, error)
	// CancelAssignment marks the assignment cancelled, writes the shift counters and enqueues
	// the cancellation event in one transaction, with the same version semantics.
	CancelAssignment(ctx context.Context, shift *domain.Shift, a *domain.TeamAssignment) error
}

type Options struct {
	Location       *time.Location
	MaxRangeDays   int
	VersionRetries int
}

type Request struct {
	TeamID         int64
	LocationID     int64
	ContractID     *int64
	From           time.Time // inclusive
	To             time.Time // inclusive
	Slot           domain.TimeSlot
	AssignedBy     *int64
	Notes          string
	AssignmentType domain.AssignmentType
}

const (
	SkipReasonNoShift      = "no matching shift"
	SkipReasonAllConflicts = "all guards excluded by consecutive-shift conflicts"
	SkipReasonAllAssigned  = "all guards already assigned"
)

// Orchestrator assigns a team to the matching shift of every day in a range.
type Orchestrator struct {
	store         Store
	consecutive   *conflict.ConsecutiveChecker
	crossContract *conflict.CrossContractChecker
	opts          Options
	logger        *slog.Logger
}

func NewOrchestrator(store Store, consecutive *conflict.ConsecutiveChecker, crossContract *conflict.CrossContractChecker, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Orchestrator{
		store:         store,
		consecutive:   consecutive,
		crossContract: crossContract,
		opts:          opts,
		logger:        logger,
	}
}

// AssignTeam returns a result in every case that reaches validation. Structural failures and
// cross-contract conflicts come back with Success=false, a typed error and nothing written.
func (o *Orchestrator) AssignTeam(ctx context.Context, req Request) (*domain.AssignmentResult, error) {
	result := domain.NewAssignmentResult()

	team, err := o.validate(ctx, &req)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	check, err := o.crossContract.Check(ctx, conflict.CrossContractRequest{
		Team:       team,
		ContractID: req.ContractID,
		From:       req.From,
		To:         req.To,
		Slot:       req.Slot,
	})
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result, fmt.Errorf("cross-contract check: %w", err)
	}
	if check.HasConflict {
		result.Conflicts = check.Conflicts
		result.Errors = append(result.Errors, check.Descriptions()...)
		return result, &domain.ConflictRejection{Conflicts: check.Conflicts}
	}

	for _, date := range domain.DaysInclusive(req.From, req.To) {
		summary, err := o.assignDay(ctx, req, team, date)
		result.TotalDaysProcessed++
		result.DailySummaries = append(result.DailySummaries, summary)
		result.Warnings = append(result.Warnings, summary.Warnings...)

		if err != nil {
			o.logger.Error("team assignment aborted", "teamID", req.TeamID, "date", domain.DateKey(date), "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", domain.DateKey(date), err))
			return result, err
		}
		if summary.GuardsAssigned > 0 {
			result.TotalShiftsAssigned++
			result.TotalGuardsAssigned += summary.GuardsAssigned
		}
	}

	result.Success = true
	o.logger.Info("team assignment finished",
		"teamID", req.TeamID,
		"locationID", req.LocationID,
		"slot", req.Slot,
		"days", result.TotalDaysProcessed,
		"shifts", result.TotalShiftsAssigned,
		"guards", result.TotalGuardsAssigned,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// validate normalises the request and loads the team.
func (o *Orchestrator) validate(ctx context.Context, req *Request) (*domain.Team, error) {
	if !req.Slot.Valid() {
		return nil, domain.NewStructuralError(domain.ErrInvalidTimeSlot, "%q", req.Slot)
	}
	if req.AssignmentType == "" {
		req.AssignmentType = domain.AssignmentTypeTeam
	}
	if !req.AssignmentType.Valid() {
		return nil, domain.NewStructuralError(errors.New("invalid assignment type"), "%q", req.AssignmentType)
	}

	req.From = domain.DateIn(req.From, o.opts.Location)
	req.To = domain.DateIn(req.To, o.opts.Location)
	if err := utils.ValidateAssignmentRange(req.From, req.To, o.opts.MaxRangeDays); err != nil {
		return nil, domain.NewStructuralError(domain.ErrInvalidDateRange, "%v", err)
	}

	team, err := o.store.GetTeamWithMembers(ctx, req.TeamID)
	switch {
	case errors.Is(err, domain.ErrTeamNotFound):
		return nil, domain.NewStructuralError(domain.ErrTeamNotFound, "team %d", req.TeamID)
	case err != nil:
		return nil, fmt.Errorf("load team %d: %w", req.TeamID, err)
	}
	if !team.IsActive {
		return nil, domain.NewStructuralError(domain.ErrTeamInactive, "team %d", req.TeamID)
	}
	if len(team.Members) == 0 {
		return nil, domain.NewStructuralError(domain.ErrTeamHasNoMembers, "team %d", req.TeamID)
	}

	if req.ContractID == nil && req.LocationID > 0 {
		contractID, err := o.resolveContract(ctx, *req)
		if err != nil {
			return nil, err
		}
		req.ContractID = contractID
	}
	return team, nil
}

// resolveContract takes the contract of the shifts the request would assign, so that they are
// never reported as another contract's commitment. Uncontracted shifts leave it nil.
func (o *Orchestrator) resolveContract(ctx context.Context, req Request) (*int64, error) {
	var found *int64
	for _, date := range domain.DaysInclusive(req.From, req.To) {
		shifts, err := o.store.GetShiftsAtLocation(ctx, req.LocationID, date, nil)
		if err != nil {
			return nil, fmt.Errorf("load shifts on %s: %w", domain.DateKey(date), err)
		}
		for _, s := range shifts {
			if s.Status == domain.ShiftStatusCancelled || s.ContractID == nil {
				continue
			}
			if domain.ClassifyTimeSlot(s.StartTime.In(o.opts.Location)) != req.Slot {
				continue
			}
			if found != nil && *found != *s.ContractID {
				return nil, domain.NewStructuralError(domain.ErrAmbiguousContract,
					"contracts %d and %d at location %d; pass a contract id", *found, *s.ContractID, req.LocationID)
			}
			found = s.ContractID
		}
	}
	if found != nil {
		o.logger.Debug("contract taken from matching shifts", "teamID", req.TeamID, "contractID", *found)
	}
	return found, nil
}

func (o *Orchestrator) assignDay(ctx context.Context, req Request, team *domain.Team, date time.Time) (domain.DailyAssignmentSummary, error) {
	summary := domain.DailyAssignmentSummary{
		Date:          date,
		TimeSlot:      req.Slot,
		AssignmentIDs: make([]int64, 0),
	}
	skip := func(reason string) (domain.DailyAssignmentSummary, error) {
		o.logger.Debug("day skipped", "teamID", req.TeamID, "date", domain.DateKey(date), "reason", reason)
		summary.Skipped = true
		summary.SkipReason = reason
		return summary, nil
	}

	shift, err := o.findShift(ctx, req, date)
	if err != nil {
		return summary, err
	}
	if shift == nil {
		return skip(SkipReasonNoShift)
	}
	summary.ShiftID = shift.ID

	check, err := o.consecutive.Check(ctx, date, req.Slot, team.GuardIDs())
	if err != nil {
		return summary, err
	}
	excluded := check.ConflictingGuardIDs()
	for _, c := range check.Conflicts {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: skipped %s", domain.DateKey(date), c.Reason))
	}

	candidates := make([]domain.TeamMember, 0, len(team.Members))
	for _, m := range team.Members {
		if _, ok := excluded[m.GuardID]; !ok {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return skip(SkipReasonAllConflicts)
	}

	var assignments []*domain.TeamAssignment
	for attempt := 0; ; attempt++ {
		assignments, err = o.buildDay(ctx, req, shift, candidates, date, &summary)
		if err != nil {
			return summary, err
		}
		if len(assignments) == 0 {
			return skip(SkipReasonAllAssigned)
		}

		err = o.store.SaveDayAssignments(ctx, shift, assignments)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= o.opts.VersionRetries {
			return summary, &domain.PersistenceError{Op: fmt.Sprintf("save assignments for shift %d", shift.ID), Err: err}
		}

		o.logger.Warn("shift changed concurrently, retrying", "shiftID", shift.ID, "attempt", attempt+1)
		if shift, err = o.store.GetShiftByID(ctx, shift.ID); err != nil {
			return summary, fmt.Errorf("reload shift: %w", err)
		}
	}

	for _, a := range assignments {
		summary.AssignmentIDs = append(summary.AssignmentIDs, a.ID)
	}
	summary.GuardsAssigned = len(assignments)

	if shift.IsUnderstaffed {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s: shift %d is understaffed (%d/%d)",
			domain.DateKey(date), shift.ID, shift.AssignedGuards, shift.RequiredGuards))
	}
	o.logger.Debug("day assigned", "shiftID", shift.ID, "guards", summary.GuardsAssigned)
	return summary, nil
}

// buildDay drops guards already on the shift, then applies the new assignments to the shift's
// counters in memory. It runs again with a reloaded shift after a version conflict.
func (o *Orchestrator) buildDay(ctx context.Context, req Request, shift *domain.Shift, candidates []domain.TeamMember, date time.Time, summary *domain.DailyAssignmentSummary) ([]*domain.TeamAssignment, error) {
	existing, err := o.store.GetActiveAssignmentGuardIDs(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("load shift %d assignments: %w", shift.ID, err)
	}

	teamID := req.TeamID
	assignments := make([]*domain.TeamAssignment, 0, len(candidates))
	for _, m := range candidates {
		if slices.Contains(existing, m.GuardID) {
			warning := fmt.Sprintf("%s: %s (%s) is already assigned to shift %d", domain.DateKey(date), m.FullName, m.EmployeeCode, shift.ID)
			if !slices.Contains(summary.Warnings, warning) {
				summary.Warnings = append(summary.Warnings, warning)
			}
			continue
		}
		assignments = append(assignments, &domain.TeamAssignment{
			ShiftID:        shift.ID,
			GuardID:        m.GuardID,
			TeamID:         &teamID,
			ContractID:     shift.ContractID,
			AssignmentType: req.AssignmentType,
			Status:         domain.AssignmentStatusAssigned,
			AssignedBy:     req.AssignedBy,
			Notes:          req.Notes,
			GuardName:      m.FullName,
			GuardEmail:     m.Email,
		})
	}

	shift.AssignedGuards += int32(len(assignments))
	shift.RecomputeStaffing()
	return assignments, nil
}

// findShift returns the shift at the location on date whose start falls in the requested slot.
func (o *Orchestrator) findShift(ctx context.Context, req Request, date time.Time) (*domain.Shift, error) {
	shifts, err := o.store.GetShiftsAtLocation(ctx, req.LocationID, date, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("load shifts on %s: %w", domain.DateKey(date), err)
	}

	var match *domain.Shift
	for _, s := range shifts {
		if s.Status == domain.ShiftStatusCancelled {
			continue
		}
		if domain.ClassifyTimeSlot(s.StartTime.In(o.opts.Location)) != req.Slot {
			continue
		}
		if match != nil {
			o.logger.Warn("more than one shift in slot, using the earliest",
				"locationID", req.LocationID, "date", domain.DateKey(date), "slot", req.Slot,
				"used", match.ID, "ignored", s.ID)
			continue
		}
		match = s
	}
	return match, nil
}
