package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type CancelRequest struct {
	AssignmentID int64
	Reason       string
}

// CancelAssignment releases one guard from a shift and announces it downstream.
func (o *Orchestrator) CancelAssignment(ctx context.Context, req CancelRequest) (*domain.TeamAssignment, error) {
	a, err := o.store.GetAssignmentByID(ctx, req.AssignmentID)
	switch {
	case errors.Is(err, domain.ErrAssignmentNotFound):
		return nil, domain.NewStructuralError(domain.ErrAssignmentNotFound, "assignment %d", req.AssignmentID)
	case err != nil:
		return nil, fmt.Errorf("load assignment %d: %w", req.AssignmentID, err)
	}
	if !a.Status.Active() {
		return nil, domain.NewStructuralError(domain.ErrAssignmentInactive, "assignment %d is %s", a.ID, a.Status)
	}

	a.Status = domain.AssignmentStatusCancelled
	a.CancellationReason = req.Reason

	for attempt := 0; ; attempt++ {
		shift, err := o.store.GetShiftByID(ctx, a.ShiftID)
		if err != nil {
			return nil, fmt.Errorf("load shift %d: %w", a.ShiftID, err)
		}
		if shift.AssignedGuards > 0 {
			shift.AssignedGuards--
		}
		shift.RecomputeStaffing()

		err = o.store.CancelAssignment(ctx, shift, a)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= o.opts.VersionRetries {
			return nil, &domain.PersistenceError{Op: fmt.Sprintf("cancel assignment %d", a.ID), Err: err}
		}
		o.logger.Warn("shift changed concurrently, retrying cancellation", "assignmentID", a.ID, "attempt", attempt+1)
	}

	o.logger.Info("assignment cancelled", "assignmentID", a.ID, "shiftID", a.ShiftID, "guardID", a.GuardID)
	return a, nil
}
