package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventShiftAssignmentCreated   EventType = "shift_assignment.created"
	EventShiftAssignmentCancelled EventType = "shift_assignment.cancelled"
)

// ShiftAssignmentEvent is consumed by the attendance and notification services.
type ShiftAssignmentEvent struct {
	EventID        uuid.UUID `json:"eventID"`
	Type           EventType `json:"type"`
	ShiftID        int64     `json:"shiftID"`
	AssignmentID   int64     `json:"assignmentID"`
	GuardID        int64     `json:"guardID"`
	GuardName      string    `json:"guardName"`
	GuardEmail     string    `json:"guardEmail"`
	TeamID         *int64    `json:"teamID"`
	ContractID     *int64    `json:"contractID"`
	ScheduledStart time.Time `json:"scheduledStart"`
	ScheduledEnd   time.Time `json:"scheduledEnd"`
	LocationID     int64     `json:"locationID"`
	LocationName   string    `json:"locationName"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// OutboxEvent is an event row written in the same transaction as the change it announces.
type OutboxEvent struct {
	ID          uuid.UUID  `json:"id"`
	EventType   EventType  `json:"eventType"`
	AggregateID int64      `json:"aggregateID"`
	Payload     []byte     `json:"payload"`
	Attempts    int32      `json:"attempts"`
	LastError   string     `json:"lastError"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `json:"publishedAt"`
}

// NewAssignmentOutboxEvent must be called after the assignment has its ID.
func NewAssignmentOutboxEvent(typ EventType, shift *Shift, a *TeamAssignment, now time.Time) (*OutboxEvent, error) {
	evt := ShiftAssignmentEvent{
		EventID:        uuid.New(),
		Type:           typ,
		ShiftID:        shift.ID,
		AssignmentID:   a.ID,
		GuardID:        a.GuardID,
		GuardName:      a.GuardName,
		GuardEmail:     a.GuardEmail,
		TeamID:         a.TeamID,
		ContractID:     shift.ContractID,
		ScheduledStart: shift.StartTime,
		ScheduledEnd:   shift.EndTime,
		LocationID:     shift.LocationID,
		LocationName:   shift.LocationName,
		Reason:         a.CancellationReason,
		OccurredAt:     now,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		ID:          evt.EventID,
		EventType:   typ,
		AggregateID: a.ID,
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}
