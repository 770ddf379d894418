package conflict

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/memstore"
)

var ict = time.FixedZone("ICT", 7*3600)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, ict)
}

func ptr[T any](v T) *T { return &v }

// fixture builds a two-guard team and returns the store.
func fixture() (*memstore.Store, *domain.Team) {
	store := memstore.New()
	store.AddGuard(&domain.Guard{ID: 1, FullName: "Nguyen Van An", EmployeeCode: "G0001", IsActive: true})
	store.AddGuard(&domain.Guard{ID: 2, FullName: "Tran Thi Binh", EmployeeCode: "G0002", IsActive: true})
	team := &domain.Team{
		ID:       7,
		Name:     "Alpha",
		IsActive: true,
		Members: []domain.TeamMember{
			{TeamID: 7, GuardID: 1, Role: domain.TeamRoleLeader, IsActive: true, FullName: "Nguyen Van An"},
			{TeamID: 7, GuardID: 2, Role: domain.TeamRoleMember, IsActive: true, FullName: "Tran Thi Binh"},
		},
	}
	store.AddTeam(team)
	return store, team
}

// addShift stores a shift starting at startHour on date and lasting eight hours.
func addShift(store *memstore.Store, contractID *int64, date time.Time, startHour int) int64 {
	start := date.Add(time.Duration(startHour) * time.Hour)
	return store.AddShift(&domain.Shift{
		ContractID:     contractID,
		LocationID:     3,
		LocationName:   "Landmark 81 Lobby",
		ShiftDate:      date,
		StartTime:      start,
		EndTime:        start.Add(8 * time.Hour),
		RequiredGuards: 2,
	})
}

func TestConsecutiveEveningBlocksNextMorning(t *testing.T) {
	store, _ := fixture()
	shiftID := addShift(store, ptr(int64(1)), day(2025, 1, 10), 22)
	store.AddAssignment(&domain.TeamAssignment{ShiftID: shiftID, GuardID: 1})

	checker := NewConsecutiveChecker(store, ict, discardLogger())

	res, err := checker.Check(context.Background(), day(2025, 1, 11), domain.TimeSlotMorning, []int64{1, 2})
	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, int64(1), c.GuardID)
	assert.Equal(t, shiftID, c.ConflictingShiftID)
	assert.Equal(t, domain.TimeSlotEvening, c.ConflictingSlot)
	assert.Equal(t, "2025-01-10", domain.DateKey(c.ConflictingDate))
	assert.Equal(t, "22:00-06:00", c.ConflictingShiftTimeRange)
	assert.Contains(t, c.Reason, "Nguyen Van An")
	assert.Contains(t, res.ConflictingGuardIDs(), int64(1))

	res, err = checker.Check(context.Background(), day(2025, 1, 12), domain.TimeSlotMorning, []int64{1, 2})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Empty(t, res.Conflicts)
}

func TestConsecutiveSameDayRules(t *testing.T) {
	store, _ := fixture()
	morning := addShift(store, ptr(int64(1)), day(2025, 1, 10), 6)
	afternoon := addShift(store, ptr(int64(1)), day(2025, 1, 10), 14)
	store.AddAssignment(&domain.TeamAssignment{ShiftID: morning, GuardID: 1})
	store.AddAssignment(&domain.TeamAssignment{ShiftID: afternoon, GuardID: 2})

	checker := NewConsecutiveChecker(store, ict, discardLogger())

	res, err := checker.Check(context.Background(), day(2025, 1, 10), domain.TimeSlotAfternoon, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, int64(1), res.Conflicts[0].GuardID)

	res, err = checker.Check(context.Background(), day(2025, 1, 10), domain.TimeSlotEvening, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, int64(2), res.Conflicts[0].GuardID)

	// the morning slot looks at the previous evening only
	res, err = checker.Check(context.Background(), day(2025, 1, 10), domain.TimeSlotMorning, []int64{1, 2})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
}

func TestConsecutiveIgnoresCancelledAssignments(t *testing.T) {
	store, _ := fixture()
	shiftID := addShift(store, nil, day(2025, 1, 10), 22)
	store.AddAssignment(&domain.TeamAssignment{ShiftID: shiftID, GuardID: 1, Status: domain.AssignmentStatusCancelled})

	checker := NewConsecutiveChecker(store, ict, discardLogger())
	res, err := checker.Check(context.Background(), day(2025, 1, 11), domain.TimeSlotMorning, []int64{1})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
}

func TestConsecutiveRejectsInvalidSlot(t *testing.T) {
	store, _ := fixture()
	checker := NewConsecutiveChecker(store, ict, discardLogger())
	_, err := checker.Check(context.Background(), day(2025, 1, 11), domain.TimeSlot("NIGHT"), []int64{1})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeSlot)
}

func TestCrossContractShiftConflict(t *testing.T) {
	store, team := fixture()
	contractA, contractB := int64(100), int64(200)
	shiftID := addShift(store, &contractA, day(2025, 2, 1), 14)
	store.AddAssignment(&domain.TeamAssignment{ShiftID: shiftID, GuardID: 1})
	store.AddAssignment(&domain.TeamAssignment{ShiftID: shiftID, GuardID: 2})

	checker := NewCrossContractChecker(store, ict, time.Second, discardLogger())

	res, err := checker.Check(context.Background(), CrossContractRequest{
		Team:       team,
		ContractID: &contractB,
		From:       day(2025, 2, 1),
		To:         day(2025, 2, 1),
		Slot:       domain.TimeSlotAfternoon,
	})
	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, domain.ConflictTypeCrossContractShift, c.Type)
	assert.Equal(t, contractA, c.OtherContractID)
	assert.Equal(t, 2, c.AffectedGuardCount)
	assert.ElementsMatch(t, []string{"Nguyen Van An", "Tran Thi Binh"}, c.AffectedGuardNames)
	assert.Equal(t, shiftID, *c.ShiftID)
	assert.Equal(t, "14:00-22:00", c.TimeRange)
	assert.False(t, c.Anticipatory)
	assert.Len(t, res.Descriptions(), 1)

	res, err = checker.Check(context.Background(), CrossContractRequest{
		Team: team, ContractID: &contractB, From: day(2025, 2, 1), To: day(2025, 2, 1), Slot: domain.TimeSlotMorning,
	})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.NotNil(t, res.Conflicts)

	res, err = checker.Check(context.Background(), CrossContractRequest{
		Team: team, ContractID: &contractA, From: day(2025, 2, 1), To: day(2025, 2, 1), Slot: domain.TimeSlotAfternoon,
	})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
}

func TestCrossContractWithoutContractSeesEveryContract(t *testing.T) {
	store, team := fixture()
	shiftID := addShift(store, ptr(int64(100)), day(2025, 2, 1), 14)
	store.AddAssignment(&domain.TeamAssignment{ShiftID: shiftID, GuardID: 2})
	uncontracted := addShift(store, nil, day(2025, 2, 2), 14)
	store.AddAssignment(&domain.TeamAssignment{ShiftID: uncontracted, GuardID: 2})

	checker := NewCrossContractChecker(store, ict, 0, discardLogger())
	res, err := checker.Check(context.Background(), CrossContractRequest{
		Team: team, From: day(2025, 2, 1), To: day(2025, 2, 3), Slot: domain.TimeSlotAfternoon,
	})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, int64(100), res.Conflicts[0].OtherContractID)
}

func TestCrossContractTemplateConflict(t *testing.T) {
	store, team := fixture()
	contractA, contractB := int64(100), int64(200)
	store.AddTemplate(&domain.ShiftTemplate{
		ID:              11,
		ContractID:      &contractA,
		TeamID:          &team.ID,
		LocationID:      3,
		LocationName:    "Thu Thiem Warehouse",
		StartTime:       "06:00:00",
		EndTime:         "14:00:00",
		AppliesSaturday: true,
		EffectiveFrom:   day(2025, 1, 1),
		IsActive:        true,
	})

	checker := NewCrossContractChecker(store, ict, time.Second, discardLogger())
	res, err := checker.Check(context.Background(), CrossContractRequest{
		Team: team, ContractID: &contractB, From: day(2025, 2, 1), To: day(2025, 2, 7), Slot: domain.TimeSlotMorning,
	})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, domain.ConflictTypeCrossContractTemplate, c.Type)
	assert.True(t, c.Anticipatory)
	assert.Equal(t, int64(11), *c.TemplateID)
	assert.Equal(t, "2025-02-01", domain.DateKey(c.ConflictingDate))
	assert.Equal(t, "06:00-14:00", c.TimeRange)
	assert.Equal(t, 2, c.AffectedGuardCount)

	// the template never yields an afternoon shift
	res, err = checker.Check(context.Background(), CrossContractRequest{
		Team: team, ContractID: &contractB, From: day(2025, 2, 1), To: day(2025, 2, 7), Slot: domain.TimeSlotAfternoon,
	})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
}
