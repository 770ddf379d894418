package conflict

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type AssignmentReader interface {
	GetGuardAssignments(ctx context.Context, filter domain.GuardAssignmentFilter) ([]domain.GuardAssignment, error)
}

// ConsecutiveChecker enforces the rest period between adjacent slots. It excludes guards one
// by one; the rest of the team is unaffected.
type ConsecutiveChecker struct {
	store  AssignmentReader
	loc    *time.Location
	logger *slog.Logger
}

func NewConsecutiveChecker(store AssignmentReader, loc *time.Location, logger *slog.Logger) *ConsecutiveChecker {
	return &ConsecutiveChecker{
		store:  store,
		loc:    loc,
		logger: logger,
	}
}

// Check looks up the single (date, slot) pair that conflicts with the requested one and flags
// every candidate guard holding an active assignment there.
func (c *ConsecutiveChecker) Check(ctx context.Context, date time.Time, slot domain.TimeSlot, guardIDs []int64) (*domain.ConsecutiveCheckResult, error) {
	result := &domain.ConsecutiveCheckResult{Conflicts: make([]domain.GuardConflict, 0)}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTimeSlot, slot)
	}
	if len(guardIDs) == 0 {
		return result, nil
	}

	conflictSlot, offset := slot.ConsecutiveConflict()
	conflictDate := domain.DateIn(date, c.loc).AddDate(0, 0, offset)

	found, err := c.store.GetGuardAssignments(ctx, domain.GuardAssignmentFilter{
		GuardIDs: guardIDs,
		From:     conflictDate,
		To:       conflictDate,
	})
	if err != nil {
		return nil, fmt.Errorf("load assignments on %s: %w", domain.DateKey(conflictDate), err)
	}

	flagged := make(map[int64]struct{})
	for _, a := range found {
		if _, ok := flagged[a.GuardID]; ok {
			continue
		}
		if domain.ClassifyTimeSlot(a.StartTime.In(c.loc)) != conflictSlot {
			continue
		}
		flagged[a.GuardID] = struct{}{}

		timeRange := a.StartTime.In(c.loc).Format("15:04") + "-" + a.EndTime.In(c.loc).Format("15:04")
		result.Conflicts = append(result.Conflicts, domain.GuardConflict{
			GuardID:                   a.GuardID,
			GuardName:                 a.GuardName,
			EmployeeCode:              a.EmployeeCode,
			ConflictingShiftID:        a.ShiftID,
			ConflictingDate:           conflictDate,
			ConflictingSlot:           conflictSlot,
			ConflictingShiftTimeRange: timeRange,
			Reason: fmt.Sprintf("%s (%s) is assigned to the %s shift on %s (%s); %s on %s would leave no rest period",
				a.GuardName, a.EmployeeCode, conflictSlot, domain.DateKey(conflictDate), timeRange,
				slot, domain.DateKey(domain.DateIn(date, c.loc))),
		})
	}
	result.HasConflict = len(result.Conflicts) > 0

	if result.HasConflict {
		c.logger.Debug("consecutive shift conflicts found", "date", domain.DateKey(date), "slot", slot, "count", len(result.Conflicts))
	}
	return result, nil
}
