package domain

import "fmt"

type TemplateStatus string

const (
	TemplateStatusAwaitingShiftCreation TemplateStatus = "awaiting_shift_creation"
	TemplateStatusShiftCreated          TemplateStatus = "shift_created"
)

func (s TemplateStatus) Valid() bool {
	switch s {
	case TemplateStatusAwaitingShiftCreation, TemplateStatusShiftCreated:
		return true
	}
	return false
}

type ShiftStatus string

const (
	ShiftStatusScheduled  ShiftStatus = "SCHEDULED"
	ShiftStatusInProgress ShiftStatus = "IN_PROGRESS"
	ShiftStatusCompleted  ShiftStatus = "COMPLETED"
	ShiftStatusCancelled  ShiftStatus = "CANCELLED"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftStatusScheduled, ShiftStatusInProgress, ShiftStatusCompleted, ShiftStatusCancelled:
		return true
	}
	return false
}

type ShiftType string

const (
	ShiftTypeRegular  ShiftType = "REGULAR"
	ShiftTypeOvertime ShiftType = "OVERTIME"
)

func (t ShiftType) Valid() bool {
	switch t {
	case ShiftTypeRegular, ShiftTypeOvertime:
		return true
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "ASSIGNED"
	AssignmentStatusConfirmed AssignmentStatus = "CONFIRMED"
	AssignmentStatusCheckedIn AssignmentStatus = "CHECKED_IN"
	AssignmentStatusCompleted AssignmentStatus = "COMPLETED"
	AssignmentStatusCancelled AssignmentStatus = "CANCELLED"
	AssignmentStatusDeclined  AssignmentStatus = "DECLINED"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusAssigned, AssignmentStatusConfirmed, AssignmentStatusCheckedIn,
		AssignmentStatusCompleted, AssignmentStatusCancelled, AssignmentStatusDeclined:
		return true
	}
	return false
}

// Active reports whether the assignment still commits the guard to the shift.
func (s AssignmentStatus) Active() bool {
	switch s {
	case AssignmentStatusCancelled, AssignmentStatusDeclined:
		return false
	case AssignmentStatusAssigned, AssignmentStatusConfirmed, AssignmentStatusCheckedIn, AssignmentStatusCompleted:
		return true
	}
	return false
}

// InactiveAssignmentStatuses is the set excluded by every "non-cancelled" query.
var InactiveAssignmentStatuses = []string{
	string(AssignmentStatusCancelled),
	string(AssignmentStatusDeclined),
}

type AssignmentType string

const (
	AssignmentTypeTeam   AssignmentType = "TEAM"
	AssignmentTypeAuto   AssignmentType = "AUTO"
	AssignmentTypeManual AssignmentType = "MANUAL"
)

func (t AssignmentType) Valid() bool {
	switch t {
	case AssignmentTypeTeam, AssignmentTypeAuto, AssignmentTypeManual:
		return true
	}
	return false
}

type TeamRole string

const (
	TeamRoleLeader TeamRole = "LEADER"
	TeamRoleMember TeamRole = "MEMBER"
)

func (r TeamRole) Valid() bool {
	switch r {
	case TeamRoleLeader, TeamRoleMember:
		return true
	}
	return false
}

type ConflictType string

const (
	ConflictTypeConsecutive           ConflictType = "CONSECUTIVE_SHIFT"
	ConflictTypeCrossContractShift    ConflictType = "CROSS_CONTRACT_SHIFT"
	ConflictTypeCrossContractTemplate ConflictType = "CROSS_CONTRACT_TEMPLATE"
)

func (t ConflictType) Valid() bool {
	switch t {
	case ConflictTypeConsecutive, ConflictTypeCrossContractShift, ConflictTypeCrossContractTemplate:
		return true
	}
	return false
}

func ParseAssignmentType(s string) (AssignmentType, error) {
	t := AssignmentType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid assignment type %q", s)
	}
	return t, nil
}
