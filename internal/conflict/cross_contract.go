package conflict

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type CrossContractStore interface {
	AssignmentReader
	// GetTeamTemplatesOfOtherContracts returns active templates pre-bound to the team whose
	// effective window overlaps [from, to] and whose contract differs from excludeContractID.
	GetTeamTemplatesOfOtherContracts(ctx context.Context, teamID int64, excludeContractID *int64, from, to time.Time) ([]*domain.ShiftTemplate, error)
}

type CrossContractRequest struct {
	Team       *domain.Team
	ContractID *int64
	From       time.Time // inclusive
	To         time.Time // inclusive
	Slot       domain.TimeSlot
}

// CrossContractChecker rejects a team that is already committed to another contract in the
// requested slot, either through existing assignments or through templates that will generate
// shifts for it later.
type CrossContractChecker struct {
	store   CrossContractStore
	loc     *time.Location
	timeout time.Duration
	logger  *slog.Logger
}

func NewCrossContractChecker(store CrossContractStore, loc *time.Location, timeout time.Duration, logger *slog.Logger) *CrossContractChecker {
	return &CrossContractChecker{
		store:   store,
		loc:     loc,
		timeout: timeout,
		logger:  logger,
	}
}

// Check runs both sub-checks. A lookup failure is returned as an error: the check gates the
// whole assignment.
func (c *CrossContractChecker) Check(ctx context.Context, req CrossContractRequest) (*domain.CrossContractCheckResult, error) {
	if !req.Slot.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTimeSlot, req.Slot)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	from := domain.DateIn(req.From, c.loc)
	to := domain.DateIn(req.To, c.loc)

	shiftConflicts, err := c.checkShifts(ctx, req, from, to)
	if err != nil {
		return nil, err
	}
	templateConflicts, err := c.checkTemplates(ctx, req, from, to)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.CrossContractConflict, 0, len(shiftConflicts)+len(templateConflicts))
	conflicts = append(conflicts, shiftConflicts...)
	conflicts = append(conflicts, templateConflicts...)
	result := &domain.CrossContractCheckResult{
		HasConflict: len(conflicts) > 0,
		Conflicts:   conflicts,
	}
	if result.HasConflict {
		c.logger.Info("cross-contract conflicts found",
			"teamID", req.Team.ID,
			"slot", req.Slot,
			"shifts", len(shiftConflicts),
			"templates", len(templateConflicts),
		)
	}
	return result, nil
}

func (c *CrossContractChecker) checkShifts(ctx context.Context, req CrossContractRequest, from, to time.Time) ([]domain.CrossContractConflict, error) {
	guardIDs := req.Team.GuardIDs()
	if len(guardIDs) == 0 {
		return nil, nil
	}

	found, err := c.store.GetGuardAssignments(ctx, domain.GuardAssignmentFilter{
		GuardIDs:           guardIDs,
		From:               from,
		To:                 to,
		OtherContractsOnly: true,
		ExcludeContractID:  req.ContractID,
	})
	if err != nil {
		return nil, fmt.Errorf("load other-contract assignments: %w", err)
	}

	byShift := make(map[int64]*domain.CrossContractConflict)
	seenGuard := make(map[int64]map[int64]struct{})
	for _, a := range found {
		if a.ContractID == nil {
			continue
		}
		start := a.StartTime.In(c.loc)
		if domain.ClassifyTimeSlot(start) != req.Slot {
			continue
		}

		conflict, ok := byShift[a.ShiftID]
		if !ok {
			shiftID := a.ShiftID
			conflict = &domain.CrossContractConflict{
				Type:               domain.ConflictTypeCrossContractShift,
				OtherContractID:    *a.ContractID,
				ConflictingDate:    domain.DateIn(a.ShiftDate, c.loc),
				TimeSlot:           req.Slot,
				LocationID:         a.LocationID,
				LocationName:       a.LocationName,
				ShiftID:            &shiftID,
				TimeRange:          start.Format("15:04") + "-" + a.EndTime.In(c.loc).Format("15:04"),
				AffectedGuardNames: make([]string, 0),
			}
			byShift[a.ShiftID] = conflict
			seenGuard[a.ShiftID] = make(map[int64]struct{})
		}
		if _, dup := seenGuard[a.ShiftID][a.GuardID]; dup {
			continue
		}
		seenGuard[a.ShiftID][a.GuardID] = struct{}{}
		conflict.AffectedGuardCount++
		conflict.AffectedGuardNames = append(conflict.AffectedGuardNames, a.GuardName)
	}

	out := make([]domain.CrossContractConflict, 0, len(byShift))
	for _, conflict := range byShift {
		out = append(out, *conflict)
	}
	slices.SortFunc(out, func(a, b domain.CrossContractConflict) int {
		if n := a.ConflictingDate.Compare(b.ConflictingDate); n != 0 {
			return n
		}
		return cmp.Compare(*a.ShiftID, *b.ShiftID)
	})
	return out, nil
}

// checkTemplates reports anticipatory conflicts: no shift exists yet, but generation will
// create one and auto-assign the team to it.
func (c *CrossContractChecker) checkTemplates(ctx context.Context, req CrossContractRequest, from, to time.Time) ([]domain.CrossContractConflict, error) {
	templates, err := c.store.GetTeamTemplatesOfOtherContracts(ctx, req.Team.ID, req.ContractID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load other-contract templates: %w", err)
	}

	out := make([]domain.CrossContractConflict, 0)
	for _, t := range templates {
		if t.ContractID == nil {
			continue
		}
		// Occurrences works on a half-open range
		dates, err := t.Occurrences(from, to.AddDate(0, 0, 1))
		if err != nil {
			c.logger.Warn("skipping template with invalid recurrence", "templateID", t.ID, "error", err)
			continue
		}
		for _, d := range dates {
			slot, err := t.TimeSlotOn(d)
			if err != nil {
				c.logger.Warn("skipping template with invalid start time", "templateID", t.ID, "error", err)
				break
			}
			if slot != req.Slot {
				continue
			}

			templateID := t.ID
			out = append(out, domain.CrossContractConflict{
				Type:               domain.ConflictTypeCrossContractTemplate,
				OtherContractID:    *t.ContractID,
				ConflictingDate:    d,
				TimeSlot:           slot,
				LocationID:         t.LocationID,
				LocationName:       t.LocationName,
				TemplateID:         &templateID,
				TimeRange:          clock(t.StartTime) + "-" + clock(t.EndTime),
				AffectedGuardCount: len(req.Team.Members),
				AffectedGuardNames: memberNames(req.Team),
				Anticipatory:       true,
			})
		}
	}
	return out, nil
}

// clock trims "15:04:05" to "15:04".
func clock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

func memberNames(t *domain.Team) []string {
	names := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		names = append(names, m.FullName)
	}
	return names
}
