package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type DayConsecutiveConflicts struct {
	Date      time.Time              `json:"date"`
	Conflicts []domain.GuardConflict `json:"conflicts"`
}

type ConflictPreview struct {
	CrossContract *domain.CrossContractCheckResult `json:"crossContract"`
	Consecutive   []DayConsecutiveConflicts        `json:"consecutive"`
	Descriptions  []string                         `json:"descriptions"`
}

// PreviewConflicts runs both checkers over the request without writing anything.
func (o *Orchestrator) PreviewConflicts(ctx context.Context, req Request) (*ConflictPreview, error) {
	team, err := o.validate(ctx, &req)
	if err != nil {
		return nil, err
	}

	cross, err := o.crossContract.Check(ctx, conflict.CrossContractRequest{
		Team:       team,
		ContractID: req.ContractID,
		From:       req.From,
		To:         req.To,
		Slot:       req.Slot,
	})
	if err != nil {
		return nil, fmt.Errorf("cross-contract check: %w", err)
	}

	preview := &ConflictPreview{
		CrossContract: cross,
		Consecutive:   make([]DayConsecutiveConflicts, 0),
		Descriptions:  cross.Descriptions(),
	}

	for _, date := range domain.DaysInclusive(req.From, req.To) {
		check, err := o.consecutive.Check(ctx, date, req.Slot, team.GuardIDs())
		if err != nil {
			return nil, err
		}
		if !check.HasConflict {
			continue
		}
		preview.Consecutive = append(preview.Consecutive, DayConsecutiveConflicts{
			Date:      date,
			Conflicts: check.Conflicts,
		})
		for _, c := range check.Conflicts {
			preview.Descriptions = append(preview.Descriptions, c.Reason)
		}
	}

	return preview, nil
}
