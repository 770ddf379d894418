package domain

import (
	"fmt"
	"time"
)

type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "MORNING"
	TimeSlotAfternoon TimeSlot = "AFTERNOON"
	TimeSlotEvening   TimeSlot = "EVENING"
)

// Slot boundaries by start hour: [06,14) morning, [14,22) afternoon, the rest evening.
const (
	morningStartHour   = 6
	afternoonStartHour = 14
	eveningStartHour   = 22
)

func ParseTimeSlot(s string) (TimeSlot, error) {
	slot := TimeSlot(s)
	if !slot.Valid() {
		return "", fmt.Errorf("invalid time slot %q", s)
	}
	return slot, nil
}

// Order ranks slots by time of day: morning, afternoon, evening. Invalid slots rank last.
func (s TimeSlot) Order() int {
	switch s {
	case TimeSlotMorning:
		return 0
	case TimeSlotAfternoon:
		return 1
	case TimeSlotEvening:
		return 2
	}
	return 3
}

func (s TimeSlot) Valid() bool {
	switch s {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening:
		return true
	}
	return false
}

// ClassifyTimeSlot maps a shift start instant to its daily slot. The hour is read in the
// instant's own location, so callers pass times already in the business timezone.
func ClassifyTimeSlot(start time.Time) TimeSlot {
	h := start.Hour()
	switch {
	case h >= morningStartHour && h < afternoonStartHour:
		return TimeSlotMorning
	case h >= afternoonStartHour && h < eveningStartHour:
		return TimeSlotAfternoon
	default:
		return TimeSlotEvening
	}
}

// ConsecutiveConflict returns the slot that may not be held right before s, and the day
// offset (relative to the requested date) on which that slot is looked up.
//
//	MORNING   <- EVENING of the previous day
//	AFTERNOON <- MORNING of the same day
//	EVENING   <- AFTERNOON of the same day
func (s TimeSlot) ConsecutiveConflict() (TimeSlot, int) {
	switch s {
	case TimeSlotMorning:
		return TimeSlotEvening, -1
	case TimeSlotAfternoon:
		return TimeSlotMorning, 0
	case TimeSlotEvening:
		return TimeSlotAfternoon, 0
	}
	panic(fmt.Sprintf("unknown time slot %q", string(s)))
}
