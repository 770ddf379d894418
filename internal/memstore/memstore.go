// Package memstore keeps every store the engines depend on in memory. It mirrors the
// Postgres repository's semantics (dedup index, one active assignment per guard and shift,
// conditional version updates, outbox rows) closely enough to drive the engines in tests and
// in dry runs.
package memstore

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

var ErrDuplicateAssignment = errors.New("guard already holds an active assignment on this shift")

type Store struct {
	mu sync.RWMutex

	templates   map[int64]*domain.ShiftTemplate
	shifts      map[int64]*domain.Shift
	assignments map[int64]*domain.TeamAssignment
	teams       map[int64]*domain.Team
	guards      map[int64]*domain.Guard
	holidays    map[string]domain.HolidayInfo
	outbox      []*domain.OutboxEvent

	nextShiftID      int64
	nextAssignmentID int64

	// InsertErr, when set, is consulted before each shift batch is written.
	InsertErr func(batch []*domain.Shift) error
	// StaleWrites makes the next n staffing updates fail with domain.ErrVersionConflict, as if
	// another writer had updated the shift first.
	StaleWrites int

	InsertCalls   int
	KeyLoadCalls  int
	HolidayCalls  int
	SaveDayCalls  int
	TemplateLoads int
}

func New() *Store {
	return &Store{
		templates:   make(map[int64]*domain.ShiftTemplate),
		shifts:      make(map[int64]*domain.Shift),
		assignments: make(map[int64]*domain.TeamAssignment),
		teams:       make(map[int64]*domain.Team),
		guards:      make(map[int64]*domain.Guard),
		holidays:    make(map[string]domain.HolidayInfo),
		outbox:      make([]*domain.OutboxEvent, 0),
	}
}

/*
 * Fixtures
 */

func (s *Store) AddTemplate(t *domain.ShiftTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	s.templates[t.ID] = &c
}

func (s *Store) AddGuard(g *domain.Guard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *g
	s.guards[g.ID] = &c
}

// AddTeam stores the team with the given members; inactive members are kept out of reads.
func (s *Store) AddTeam(t *domain.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *t
	c.Members = slices.Clone(t.Members)
	s.teams[t.ID] = &c
}

func (s *Store) AddHoliday(h domain.HolidayInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[domain.DateKey(h.Date)] = h
}

// AddShift stores a shift as-is and returns its ID.
func (s *Store) AddShift(sh *domain.Shift) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sh
	if c.ID == 0 {
		s.nextShiftID++
		c.ID = s.nextShiftID
	}
	s.nextShiftID = max(s.nextShiftID, c.ID)
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = domain.ShiftStatusScheduled
	}
	s.shifts[c.ID] = &c
	sh.ID = c.ID
	sh.Version = c.Version
	return c.ID
}

func (s *Store) AddAssignment(a *domain.TeamAssignment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	if c.ID == 0 {
		s.nextAssignmentID++
		c.ID = s.nextAssignmentID
	}
	s.nextAssignmentID = max(s.nextAssignmentID, c.ID)
	if c.Status == "" {
		c.Status = domain.AssignmentStatusAssigned
	}
	s.assignments[c.ID] = &c
	a.ID = c.ID
	return c.ID
}

func (s *Store) AddOutboxEvent(evt *domain.OutboxEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *evt
	s.outbox = append(s.outbox, &c)
}

/*
 * Inspection
 */

func (s *Store) Shifts() []*domain.Shift {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Shift, 0, len(s.shifts))
	for _, sh := range s.shifts {
		c := *sh
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Shift) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) Assignments() []*domain.TeamAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.TeamAssignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		c := *a
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.TeamAssignment) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) Template(id int64) *domain.ShiftTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

func (s *Store) OutboxEvents() []*domain.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		c := *e
		out = append(out, &c)
	}
	return out
}

/*
 * generator.Store
 */

func (s *Store) GetActiveTemplates(_ context.Context, contractID int64, templateIDs []int64) ([]*domain.ShiftTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TemplateLoads++

	out := make([]*domain.ShiftTemplate, 0)
	for _, t := range s.templates {
		if !t.IsActive || t.ContractID == nil || *t.ContractID != contractID {
			continue
		}
		if len(templateIDs) > 0 && !slices.Contains(templateIDs, t.ID) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.ShiftTemplate) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetShiftKeys(_ context.Context, locationIDs []int64, from, to time.Time) ([]domain.DedupKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.KeyLoadCalls++

	fromKey, toKey := domain.DateKey(from), domain.DateKey(to)
	keys := make([]domain.DedupKey, 0)
	for _, sh := range s.shifts {
		if sh.Status == domain.ShiftStatusCancelled || !slices.Contains(locationIDs, sh.LocationID) {
			continue
		}
		if d := domain.DateKey(sh.ShiftDate); d < fromKey || d >= toKey {
			continue
		}
		keys = append(keys, sh.Key())
	}
	return keys, nil
}

func (s *Store) InsertShifts(_ context.Context, batch []*domain.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InsertCalls++

	if s.InsertErr != nil {
		if err := s.InsertErr(batch); err != nil {
			return err
		}
	}

	existing := make(map[domain.DedupKey]struct{}, len(s.shifts))
	for _, sh := range s.shifts {
		if sh.Status != domain.ShiftStatusCancelled {
			existing[sh.Key()] = struct{}{}
		}
	}

	now := time.Now()
	for _, sh := range batch {
		if _, dup := existing[sh.Key()]; dup {
			continue
		}
		s.nextShiftID++
		sh.ID = s.nextShiftID
		sh.Version = 1
		sh.CreatedAt = now
		c := *sh
		s.shifts[c.ID] = &c
		existing[c.Key()] = struct{}{}
	}
	return nil
}

func (s *Store) MarkTemplatesShiftCreated(_ context.Context, templateIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range templateIDs {
		if t, ok := s.templates[id]; ok && t.Status != domain.TemplateStatusShiftCreated {
			t.Status = domain.TemplateStatusShiftCreated
			t.Version++
		}
	}
	return nil
}

/*
 * holiday.Source
 */

func (s *Store) GetPublicHolidays(_ context.Context, from, to time.Time) ([]domain.HolidayInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.HolidayCalls++

	fromKey, toKey := domain.DateKey(from), domain.DateKey(to)
	out := make([]domain.HolidayInfo, 0)
	for key, h := range s.holidays {
		if key >= fromKey && key <= toKey {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b domain.HolidayInfo) int { return a.Date.Compare(b.Date) })
	return out, nil
}

/*
 * conflict stores
 */

func (s *Store) GetGuardAssignments(_ context.Context, filter domain.GuardAssignmentFilter) ([]domain.GuardAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fromKey, toKey := domain.DateKey(filter.From), domain.DateKey(filter.To)
	out := make([]domain.GuardAssignment, 0)
	for _, a := range s.assignments {
		if !a.Status.Active() || !slices.Contains(filter.GuardIDs, a.GuardID) {
			continue
		}
		sh, ok := s.shifts[a.ShiftID]
		if !ok || sh.Status == domain.ShiftStatusCancelled {
			continue
		}
		if d := domain.DateKey(sh.ShiftDate); d < fromKey || d > toKey {
			continue
		}
		if filter.OtherContractsOnly {
			if sh.ContractID == nil {
				continue
			}
			if filter.ExcludeContractID != nil && *sh.ContractID == *filter.ExcludeContractID {
				continue
			}
		}

		ga := domain.GuardAssignment{
			AssignmentID: a.ID,
			ShiftID:      sh.ID,
			ContractID:   sh.ContractID,
			GuardID:      a.GuardID,
			ShiftDate:    sh.ShiftDate,
			StartTime:    sh.StartTime,
			EndTime:      sh.EndTime,
			LocationID:   sh.LocationID,
			LocationName: sh.LocationName,
		}
		if g, ok := s.guards[a.GuardID]; ok {
			ga.GuardName = g.FullName
			ga.EmployeeCode = g.EmployeeCode
		}
		out = append(out, ga)
	}

	slices.SortFunc(out, func(a, b domain.GuardAssignment) int {
		if n := a.StartTime.Compare(b.StartTime); n != 0 {
			return n
		}
		return cmp.Compare(a.GuardID, b.GuardID)
	})
	return out, nil
}

func (s *Store) GetTeamTemplatesOfOtherContracts(_ context.Context, teamID int64, excludeContractID *int64, from, to time.Time) ([]*domain.ShiftTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ShiftTemplate, 0)
	for _, t := range s.templates {
		if !t.IsActive || t.TeamID == nil || *t.TeamID != teamID || t.ContractID == nil {
			continue
		}
		if excludeContractID != nil && *t.ContractID == *excludeContractID {
			continue
		}
		if domain.DateKey(t.EffectiveFrom) > domain.DateKey(to) {
			continue
		}
		if t.EffectiveTo != nil && domain.DateKey(*t.EffectiveTo) < domain.DateKey(from) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.ShiftTemplate) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

/*
 * assignment.Store
 */

func (s *Store) GetTeamWithMembers(_ context.Context, teamID int64) (*domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[teamID]
	if !ok {
		return nil, domain.ErrTeamNotFound
	}
	c := *t
	c.Members = make([]domain.TeamMember, 0, len(t.Members))
	for _, m := range t.Members {
		if !m.IsActive {
			continue
		}
		if g, ok := s.guards[m.GuardID]; ok && !g.IsActive {
			continue
		}
		c.Members = append(c.Members, m)
	}
	return &c, nil
}

func (s *Store) GetShiftsAtLocation(_ context.Context, locationID int64, date time.Time, contractID *int64) ([]*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Shift, 0)
	for _, sh := range s.shifts {
		if sh.LocationID != locationID || sh.Status == domain.ShiftStatusCancelled {
			continue
		}
		if domain.DateKey(sh.ShiftDate) != domain.DateKey(date) {
			continue
		}
		if contractID != nil && (sh.ContractID == nil || *sh.ContractID != *contractID) {
			continue
		}
		c := *sh
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *domain.Shift) int {
		if n := a.StartTime.Compare(b.StartTime); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetShiftByID(_ context.Context, id int64) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sh, ok := s.shifts[id]
	if !ok {
		return nil, fmt.Errorf("shift %d not found", id)
	}
	c := *sh
	return &c, nil
}

func (s *Store) GetActiveAssignmentGuardIDs(_ context.Context, shiftID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0)
	for _, a := range s.assignments {
		if a.ShiftID == shiftID && a.Status.Active() {
			ids = append(ids, a.GuardID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// updateStaffingLocked mirrors the conditional UPDATE ... WHERE version = $n.
func (s *Store) updateStaffingLocked(shift *domain.Shift) (int32, error) {
	stored, ok := s.shifts[shift.ID]
	if !ok {
		return 0, fmt.Errorf("shift %d not found", shift.ID)
	}
	if s.StaleWrites > 0 {
		s.StaleWrites--
		stored.Version++
		return 0, domain.ErrVersionConflict
	}
	if stored.Version != shift.Version {
		return 0, domain.ErrVersionConflict
	}
	return stored.Version + 1, nil
}

func (s *Store) applyStaffingLocked(shift *domain.Shift, version int32) {
	stored := s.shifts[shift.ID]
	stored.AssignedGuards = shift.AssignedGuards
	stored.StaffingPercentage = shift.StaffingPercentage
	stored.IsFullyStaffed = shift.IsFullyStaffed
	stored.IsUnderstaffed = shift.IsUnderstaffed
	stored.IsOverstaffed = shift.IsOverstaffed
	stored.Version = version
	shift.Version = version
}

func (s *Store) SaveDayAssignments(_ context.Context, shift *domain.Shift, assignments []*domain.TeamAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveDayCalls++

	version, err := s.updateStaffingLocked(shift)
	if err != nil {
		return err
	}

	for _, a := range assignments {
		for _, existing := range s.assignments {
			if existing.ShiftID == a.ShiftID && existing.GuardID == a.GuardID && existing.Status.Active() {
				return ErrDuplicateAssignment
			}
		}
	}

	// the transaction is all-or-nothing, so events are built before anything is stored
	now := time.Now()
	staged := make([]*domain.TeamAssignment, 0, len(assignments))
	events := make([]*domain.OutboxEvent, 0, len(assignments))
	nextID := s.nextAssignmentID
	for _, a := range assignments {
		nextID++
		c := *a
		c.ID = nextID
		c.CreatedAt = now
		c.Version = 1
		evt, err := domain.NewAssignmentOutboxEvent(domain.EventShiftAssignmentCreated, shift, &c, now)
		if err != nil {
			return err
		}
		staged = append(staged, &c)
		events = append(events, evt)
	}

	s.nextAssignmentID = nextID
	for i, c := range staged {
		s.assignments[c.ID] = c
		assignments[i].ID = c.ID
		assignments[i].CreatedAt = c.CreatedAt
		assignments[i].Version = c.Version
	}
	s.outbox = append(s.outbox, events...)
	s.applyStaffingLocked(shift, version)
	return nil
}

func (s *Store) GetAssignmentByID(_ context.Context, id int64) (*domain.TeamAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assignments[id]
	if !ok {
		return nil, domain.ErrAssignmentNotFound
	}
	c := *a
	if g, ok := s.guards[a.GuardID]; ok {
		c.GuardName = g.FullName
		c.GuardEmail = g.Email
	}
	return &c, nil
}

func (s *Store) CancelAssignment(_ context.Context, shift *domain.Shift, a *domain.TeamAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.assignments[a.ID]
	if !ok {
		return domain.ErrAssignmentNotFound
	}
	if !stored.Status.Active() {
		return domain.ErrAssignmentInactive
	}

	version, err := s.updateStaffingLocked(shift)
	if err != nil {
		return err
	}

	now := time.Now()
	evt, err := domain.NewAssignmentOutboxEvent(domain.EventShiftAssignmentCancelled, shift, a, now)
	if err != nil {
		return err
	}

	stored.Status = domain.AssignmentStatusCancelled
	stored.CancelledAt = &now
	stored.CancellationReason = a.CancellationReason
	stored.Version++
	a.CancelledAt = &now
	a.Version = stored.Version
	s.outbox = append(s.outbox, evt)
	s.applyStaffingLocked(shift, version)
	return nil
}

/*
 * events.OutboxStore
 */

func (s *Store) GetPendingOutboxEvents(_ context.Context, limit, maxAttempts int) ([]*domain.OutboxEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.OutboxEvent, 0)
	for _, e := range s.outbox {
		if e.PublishedAt != nil || (maxAttempts > 0 && int(e.Attempts) >= maxAttempts) {
			continue
		}
		c := *e
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkOutboxEventPublished(_ context.Context, evt *domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.outbox {
		if e.ID == evt.ID {
			now := time.Now()
			e.PublishedAt = &now
			e.Attempts++
			e.LastError = ""
			evt.PublishedAt = &now
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", evt.ID)
}

func (s *Store) MarkOutboxEventFailed(_ context.Context, evt *domain.OutboxEvent, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.outbox {
		if e.ID == evt.ID {
			e.Attempts++
			e.LastError = cause.Error()
			evt.Attempts = e.Attempts
			return nil
		}
	}
	return fmt.Errorf("outbox event %s not found", evt.ID)
}
