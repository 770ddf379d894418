package domain

import "time"

type SkipReason struct {
	Date       time.Time `json:"date"`
	LocationID int64     `json:"locationID"`
	TemplateID int64     `json:"templateID"`
	Reason     string    `json:"reason"`
}

type GenerationResult struct {
	CreatedCount    int                 `json:"createdCount"`
	SkippedCount    int                 `json:"skippedCount"`
	SkipReasons     []SkipReason        `json:"skipReasons"`
	CreatedShiftIDs []int64             `json:"createdShiftIDs"`
	Errors          []string            `json:"errors"`
	GeneratedFrom   time.Time           `json:"generatedFrom"`
	GeneratedTo     time.Time           `json:"generatedTo"`
	AutoAssignments []AutoAssignOutcome `json:"autoAssignments,omitempty"`
}

// AutoAssignOutcome summarises one (team, location, date, slot) group assigned after generation.
type AutoAssignOutcome struct {
	TeamID         int64     `json:"teamID"`
	LocationID     int64     `json:"locationID"`
	Date           time.Time `json:"date"`
	TimeSlot       TimeSlot  `json:"timeSlot"`
	GuardsAssigned int       `json:"guardsAssigned"`
	Error          string    `json:"error,omitempty"`
}

type DailyAssignmentSummary struct {
	Date           time.Time `json:"date"`
	ShiftID        int64     `json:"shiftID,omitempty"`
	TimeSlot       TimeSlot  `json:"timeSlot"`
	GuardsAssigned int       `json:"guardsAssigned"`
	AssignmentIDs  []int64   `json:"assignmentIDs"`
	Skipped        bool      `json:"skipped"`
	SkipReason     string    `json:"skipReason,omitempty"`
	Warnings       []string  `json:"warnings,omitempty"`
}

type AssignmentResult struct {
	Success             bool                     `json:"success"`
	TotalDaysProcessed  int                      `json:"totalDaysProcessed"`
	TotalShiftsAssigned int                      `json:"totalShiftsAssigned"`
	TotalGuardsAssigned int                      `json:"totalGuardsAssigned"`
	DailySummaries      []DailyAssignmentSummary `json:"dailySummaries"`
	Warnings            []string                 `json:"warnings"`
	Errors              []string                 `json:"errors"`
	Conflicts           []CrossContractConflict  `json:"conflicts,omitempty"`
}

func NewAssignmentResult() *AssignmentResult {
	return &AssignmentResult{
		DailySummaries: make([]DailyAssignmentSummary, 0),
		Warnings:       make([]string, 0),
		Errors:         make([]string, 0),
	}
}
