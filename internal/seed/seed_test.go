package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

type recordingStore struct {
	nextID    int64
	locations []*domain.Location
	guards    []*domain.Guard
	teams     []*domain.Team
	members   []*domain.TeamMember
	templates []*domain.ShiftTemplate
	holidays  []*domain.HolidayInfo
}

func (s *recordingStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *recordingStore) CreateLocation(_ context.Context, l *domain.Location) error {
	l.ID = s.id()
	s.locations = append(s.locations, l)
	return nil
}

func (s *recordingStore) CreateGuard(_ context.Context, g *domain.Guard) error {
	g.ID = s.id()
	s.guards = append(s.guards, g)
	return nil
}

func (s *recordingStore) CreateTeam(_ context.Context, t *domain.Team) error {
	t.ID = s.id()
	s.teams = append(s.teams, t)
	return nil
}

func (s *recordingStore) AddTeamMember(_ context.Context, m *domain.TeamMember) error {
	s.members = append(s.members, m)
	return nil
}

func (s *recordingStore) CreateShiftTemplate(_ context.Context, t *domain.ShiftTemplate) error {
	t.ID = s.id()
	s.templates = append(s.templates, t)
	return nil
}

func (s *recordingStore) UpsertPublicHoliday(_ context.Context, h *domain.HolidayInfo) error {
	s.holidays = append(s.holidays, h)
	return nil
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestLoadFile(t *testing.T) {
	store := &recordingStore{}

	sum, err := LoadFile(context.Background(), store, "testdata/fixtures.yaml", time.UTC, discardLogger)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Locations: 2, Guards: 3, Teams: 1, Members: 3, Templates: 2, Holidays: 2}, sum)

	// the leader is listed among the members but joins once
	require.Len(t, store.members, 3)
	assert.Equal(t, domain.TeamRoleLeader, store.members[0].Role)
	assert.Equal(t, store.guards[0].ID, store.members[0].GuardID)
	assert.Equal(t, domain.TeamRoleMember, store.members[1].Role)

	morning := store.templates[0]
	assert.Equal(t, store.locations[0].ID, morning.LocationID)
	require.NotNil(t, morning.TeamID)
	assert.Equal(t, store.teams[0].ID, *morning.TeamID)
	require.NotNil(t, morning.ContractID)
	assert.Equal(t, int64(1), *morning.ContractID)
	assert.True(t, morning.AppliesMonday)
	assert.True(t, morning.AppliesFriday)
	assert.False(t, morning.AppliesSaturday)
	assert.Equal(t, domain.TemplateStatusAwaitingShiftCreation, morning.Status)

	night := store.templates[1]
	assert.Nil(t, night.TeamID)
	assert.True(t, night.CrossesMidnight)
	assert.True(t, night.AppliesSunday)
	require.NotNil(t, night.EffectiveTo)
	assert.Equal(t, "2025-12-31", night.EffectiveTo.Format(time.DateOnly))

	assert.True(t, store.holidays[0].IsTetHoliday)
	assert.False(t, store.holidays[1].IsTetHoliday)
}

func TestParseFixturesRejectsUnknownFields(t *testing.T) {
	_, err := ParseFixtures(strings.NewReader("guards:\n  - fullName: A\n    badge: 7\n"))
	assert.Error(t, err)
}

func TestApplyUnknownReferences(t *testing.T) {
	tests := []struct {
		name     string
		fixtures *Fixtures
		want     string
	}{
		{
			name:     "team member",
			fixtures: &Fixtures{Teams: []TeamFixture{{Name: "Bravo", Members: []string{"G9999"}}}},
			want:     `unknown guard "G9999"`,
		},
		{
			name: "template location",
			fixtures: &Fixtures{Templates: []TemplateFixture{{
				Name: "Gate", Location: "Nowhere", StartTime: "06:00:00", EndTime: "14:00:00", EffectiveFrom: "2025-01-01",
			}}},
			want: `unknown location "Nowhere"`,
		},
		{
			name: "template team",
			fixtures: &Fixtures{
				Locations: []LocationFixture{{Name: "Gate"}},
				Templates: []TemplateFixture{{
					Name: "Gate", Location: "Gate", Team: "Ghost", StartTime: "06:00:00", EndTime: "14:00:00", EffectiveFrom: "2025-01-01",
				}},
			},
			want: `unknown team "Ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(context.Background(), &recordingStore{}, tt.fixtures, time.UTC, discardLogger)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSetDays(t *testing.T) {
	var tmpl domain.ShiftTemplate
	require.NoError(t, setDays(&tmpl, []int{6, 7}))
	assert.True(t, tmpl.AppliesSaturday)
	assert.True(t, tmpl.AppliesSunday)
	assert.False(t, tmpl.AppliesMonday)

	assert.Error(t, setDays(&domain.ShiftTemplate{}, []int{0}))
	assert.Error(t, setDays(&domain.ShiftTemplate{}, []int{8}))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), &recordingStore{}, "testdata/missing.yaml", time.UTC, discardLogger)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
