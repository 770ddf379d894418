package assignment

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

// AutoAssignBridge assigns pre-bound teams to freshly generated shifts.
type AutoAssignBridge struct {
	orchestrator *Orchestrator
	loc          *time.Location
	logger       *slog.Logger
}

func NewAutoAssignBridge(orchestrator *Orchestrator, loc *time.Location, logger *slog.Logger) *AutoAssignBridge {
	if loc == nil {
		loc = time.UTC
	}
	return &AutoAssignBridge{
		orchestrator: orchestrator,
		loc:          loc,
		logger:       logger,
	}
}

type groupKey struct {
	teamID     int64
	locationID int64
	contractID int64
	date       string
	slot       domain.TimeSlot
}

type group struct {
	key        groupKey
	date       time.Time
	contractID *int64
}

// AfterGeneration runs one single-day assignment per (team, location, contract, date, slot).
// A failing group is logged and reported in its outcome; the shifts stay committed.
func (b *AutoAssignBridge) AfterGeneration(ctx context.Context, shifts []*domain.Shift, templates map[int64]*domain.ShiftTemplate) []domain.AutoAssignOutcome {
	groups := make(map[groupKey]*group)
	for _, s := range shifts {
		if s.TemplateID == nil {
			continue
		}
		t, ok := templates[*s.TemplateID]
		if !ok || t.TeamID == nil {
			continue
		}

		key := groupKey{
			teamID:     *t.TeamID,
			locationID: s.LocationID,
			date:       domain.DateKey(s.ShiftDate),
			slot:       domain.ClassifyTimeSlot(s.StartTime.In(b.loc)),
		}
		if s.ContractID != nil {
			key.contractID = *s.ContractID
		}
		if _, ok := groups[key]; !ok {
			groups[key] = &group{key: key, date: s.ShiftDate, contractID: s.ContractID}
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	slices.SortFunc(ordered, func(a, b *group) int {
		if n := a.date.Compare(b.date); n != 0 {
			return n
		}
		// the consecutive check looks back in time, so a day's earlier slots go first for
		// every team and location
		if n := cmp.Compare(a.key.slot.Order(), b.key.slot.Order()); n != 0 {
			return n
		}
		if n := cmp.Compare(a.key.teamID, b.key.teamID); n != 0 {
			return n
		}
		if n := cmp.Compare(a.key.locationID, b.key.locationID); n != 0 {
			return n
		}
		return cmp.Compare(a.key.contractID, b.key.contractID)
	})

	outcomes := make([]domain.AutoAssignOutcome, 0, len(ordered))
	for _, g := range ordered {
		outcome := domain.AutoAssignOutcome{
			TeamID:     g.key.teamID,
			LocationID: g.key.locationID,
			Date:       g.date,
			TimeSlot:   g.key.slot,
		}

		res, err := b.orchestrator.AssignTeam(ctx, Request{
			TeamID:         g.key.teamID,
			LocationID:     g.key.locationID,
			ContractID:     g.contractID,
			From:           g.date,
			To:             g.date,
			Slot:           g.key.slot,
			AssignmentType: domain.AssignmentTypeAuto,
		})
		if err != nil {
			b.logger.Warn("auto-assignment failed",
				"teamID", g.key.teamID,
				"locationID", g.key.locationID,
				"date", g.key.date,
				"slot", g.key.slot,
				"error", err,
			)
			outcome.Error = err.Error()
		}
		if res != nil {
			outcome.GuardsAssigned = res.TotalGuardsAssigned
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}
