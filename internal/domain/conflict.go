package domain

import (
	"fmt"
	"strings"
	"time"
)

// GuardConflict is a guard excluded from one (date, slot) by the rest-period rule.
type GuardConflict struct {
	GuardID                   int64     `json:"guardID"`
	GuardName                 string    `json:"guardName"`
	EmployeeCode              string    `json:"employeeCode"`
	ConflictingShiftID        int64     `json:"conflictingShiftID"`
	ConflictingDate           time.Time `json:"conflictingDate"`
	ConflictingSlot           TimeSlot  `json:"conflictingSlot"`
	ConflictingShiftTimeRange string    `json:"conflictingShiftTimeRange"`
	Reason                    string    `json:"reason"`
}

type ConsecutiveCheckResult struct {
	HasConflict bool            `json:"hasConflict"`
	Conflicts   []GuardConflict `json:"conflicts"`
}

// ConflictingGuardIDs returns the set of guards that must be skipped.
func (r *ConsecutiveCheckResult) ConflictingGuardIDs() map[int64]struct{} {
	ids := make(map[int64]struct{}, len(r.Conflicts))
	for _, c := range r.Conflicts {
		ids[c.GuardID] = struct{}{}
	}
	return ids
}

type CrossContractConflict struct {
	Type               ConflictType `json:"type"`
	OtherContractID    int64        `json:"otherContractID"`
	ConflictingDate    time.Time    `json:"conflictingDate"`
	TimeSlot           TimeSlot     `json:"timeSlot"`
	LocationID         int64        `json:"locationID"`
	LocationName       string       `json:"locationName"`
	ShiftID            *int64       `json:"shiftID,omitempty"`
	TemplateID         *int64       `json:"templateID,omitempty"`
	TimeRange          string       `json:"timeRange"`
	AffectedGuardCount int          `json:"affectedGuardCount"`
	AffectedGuardNames []string     `json:"affectedGuardNames"`
	// Anticipatory conflicts come from templates that will generate a shift later.
	Anticipatory bool `json:"anticipatory"`
}

func (c CrossContractConflict) Describe() string {
	date := c.ConflictingDate.Format(DateLayout)
	switch c.Type {
	case ConflictTypeCrossContractShift:
		return fmt.Sprintf("%d guard(s) (%s) already assigned to contract %d at %s on %s %s (%s)",
			c.AffectedGuardCount, strings.Join(c.AffectedGuardNames, ", "), c.OtherContractID,
			c.LocationName, date, c.TimeSlot, c.TimeRange)
	case ConflictTypeCrossContractTemplate:
		return fmt.Sprintf("team is pre-bound to a template of contract %d at %s that will generate a %s shift on %s (%s)",
			c.OtherContractID, c.LocationName, c.TimeSlot, date, c.TimeRange)
	case ConflictTypeConsecutive:
		return fmt.Sprintf("consecutive shift conflict on %s %s", date, c.TimeSlot)
	}
	return fmt.Sprintf("conflict with contract %d on %s", c.OtherContractID, date)
}

type CrossContractCheckResult struct {
	HasConflict bool                    `json:"hasConflict"`
	Conflicts   []CrossContractConflict `json:"conflicts"`
}

func (r *CrossContractCheckResult) Descriptions() []string {
	out := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		out = append(out, c.Describe())
	}
	return out
}
