package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamInactive      = errors.New("team is inactive")
	ErrTeamHasNoMembers  = errors.New("team has no active members")
	ErrNoActiveTemplates = errors.New("no active shift templates")
	ErrMixedContracts    = errors.New("templates belong to more than one contract")
	ErrAmbiguousContract = errors.New("matching shifts belong to more than one contract")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidTimeSlot   = errors.New("invalid time slot")
	ErrPermissionDenied  = errors.New("permission denied")

	// ErrVersionConflict is returned when a conditional update finds a newer row version.
	ErrVersionConflict = errors.New("version conflict")

	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrAssignmentInactive = errors.New("assignment is already cancelled or declined")
)

// StructuralError aborts an operation before any write.
type StructuralError struct {
	Err    error
	Detail string
}

func NewStructuralError(err error, format string, args ...any) *StructuralError {
	return &StructuralError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

func (e *StructuralError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *StructuralError) Unwrap() error { return e.Err }

// ConflictRejection aborts a team assignment because of cross-contract commitments.
type ConflictRejection struct {
	Conflicts []CrossContractConflict
}

func (e *ConflictRejection) Error() string {
	descs := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		descs = append(descs, c.Describe())
	}
	return "cross-contract conflict: " + strings.Join(descs, "; ")
}

// PersistenceError wraps a failed write. Work committed before it stays committed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
