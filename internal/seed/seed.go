package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

// Store is the subset of the repository the seeder writes through.
type Store interface {
	CreateLocation(ctx context.Context, l *domain.Location) error
	CreateGuard(ctx context.Context, g *domain.Guard) error
	CreateTeam(ctx context.Context, t *domain.Team) error
	AddTeamMember(ctx context.Context, m *domain.TeamMember) error
	CreateShiftTemplate(ctx context.Context, t *domain.ShiftTemplate) error
	UpsertPublicHoliday(ctx context.Context, h *domain.HolidayInfo) error
}

type Fixtures struct {
	Locations []LocationFixture `yaml:"locations"`
	Guards    []GuardFixture    `yaml:"guards"`
	Teams     []TeamFixture     `yaml:"teams"`
	Templates []TemplateFixture `yaml:"templates"`
	Holidays  []HolidayFixture  `yaml:"holidays"`
}

type LocationFixture struct {
	Name    string   `yaml:"name"`
	Address string   `yaml:"address"`
	Lat     *float64 `yaml:"lat"`
	Lng     *float64 `yaml:"lng"`
}

type GuardFixture struct {
	FullName     string `yaml:"fullName"`
	EmployeeCode string `yaml:"employeeCode"`
	Email        string `yaml:"email"`
}

type TeamFixture struct {
	Name    string   `yaml:"name"`
	Leader  string   `yaml:"leader"`  // employee code
	Members []string `yaml:"members"` // employee codes
}

type TemplateFixture struct {
	Name            string `yaml:"name"`
	ContractID      int64  `yaml:"contractID"`
	Location        string `yaml:"location"`
	Team            string `yaml:"team"`
	StartTime       string `yaml:"startTime"`
	EndTime         string `yaml:"endTime"`
	CrossesMidnight bool   `yaml:"crossesMidnight"`
	BreakMinutes    int32  `yaml:"breakMinutes"`
	// ISO weekday numbers, 1 is Monday
	Days          []int  `yaml:"days"`
	EffectiveFrom string `yaml:"effectiveFrom"`
	EffectiveTo   string `yaml:"effectiveTo"`
	MinGuards     int32  `yaml:"minGuards"`
	MaxGuards     int32  `yaml:"maxGuards"`
	OptimalGuards int32  `yaml:"optimalGuards"`
}

type HolidayFixture struct {
	Date  string `yaml:"date"`
	Name  string `yaml:"name"`
	IsTet bool   `yaml:"isTet"`
}

type Summary struct {
	Locations int
	Guards    int
	Teams     int
	Members   int
	Templates int
	Holidays  int
}

func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

func LoadFile(ctx context.Context, store Store, path string, loc *time.Location, logger *slog.Logger) (*Summary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := ParseFixtures(file)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, store, f, loc, logger)
}

// Apply inserts the fixtures in dependency order. Names used by teams and templates must be
// declared in the same fixture set.
func Apply(ctx context.Context, store Store, f *Fixtures, loc *time.Location, logger *slog.Logger) (*Summary, error) {
	sum := &Summary{}

	locations := make(map[string]int64, len(f.Locations))
	for _, lf := range f.Locations {
		l := &domain.Location{Name: lf.Name, Address: lf.Address, Lat: lf.Lat, Lng: lf.Lng}
		if err := store.CreateLocation(ctx, l); err != nil {
			return sum, fmt.Errorf("location %q: %w", lf.Name, err)
		}
		locations[lf.Name] = l.ID
		sum.Locations++
	}

	guards := make(map[string]int64, len(f.Guards))
	for _, gf := range f.Guards {
		g := &domain.Guard{FullName: gf.FullName, EmployeeCode: gf.EmployeeCode, Email: gf.Email, IsActive: true}
		if err := store.CreateGuard(ctx, g); err != nil {
			return sum, fmt.Errorf("guard %q: %w", gf.EmployeeCode, err)
		}
		guards[gf.EmployeeCode] = g.ID
		sum.Guards++
	}

	teams := make(map[string]int64, len(f.Teams))
	for _, tf := range f.Teams {
		t := &domain.Team{Name: tf.Name, IsActive: true}
		if err := store.CreateTeam(ctx, t); err != nil {
			return sum, fmt.Errorf("team %q: %w", tf.Name, err)
		}
		teams[tf.Name] = t.ID
		sum.Teams++

		codes := tf.Members
		if tf.Leader != "" {
			codes = append([]string{tf.Leader}, codes...)
		}
		seen := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}

			guardID, ok := guards[code]
			if !ok {
				return sum, fmt.Errorf("team %q: unknown guard %q", tf.Name, code)
			}
			role := domain.TeamRoleMember
			if code == tf.Leader {
				role = domain.TeamRoleLeader
			}
			m := &domain.TeamMember{TeamID: t.ID, GuardID: guardID, Role: role, IsActive: true}
			if err := store.AddTeamMember(ctx, m); err != nil {
				return sum, fmt.Errorf("team %q member %q: %w", tf.Name, code, err)
			}
			sum.Members++
		}
	}

	for _, tf := range f.Templates {
		t, err := buildTemplate(tf, locations, teams, loc)
		if err != nil {
			return sum, fmt.Errorf("template %q: %w", tf.Name, err)
		}
		if err := store.CreateShiftTemplate(ctx, t); err != nil {
			return sum, fmt.Errorf("template %q: %w", tf.Name, err)
		}
		sum.Templates++
	}

	for _, hf := range f.Holidays {
		date, err := time.ParseInLocation(time.DateOnly, hf.Date, loc)
		if err != nil {
			return sum, fmt.Errorf("holiday %q: %w", hf.Name, err)
		}
		if err := store.UpsertPublicHoliday(ctx, &domain.HolidayInfo{Date: date, Name: hf.Name, IsTetHoliday: hf.IsTet}); err != nil {
			return sum, fmt.Errorf("holiday %q: %w", hf.Name, err)
		}
		sum.Holidays++
	}

	logger.Info("fixtures loaded",
		"locations", sum.Locations,
		"guards", sum.Guards,
		"teams", sum.Teams,
		"members", sum.Members,
		"templates", sum.Templates,
		"holidays", sum.Holidays,
	)
	return sum, nil
}

func buildTemplate(tf TemplateFixture, locations, teams map[string]int64, loc *time.Location) (*domain.ShiftTemplate, error) {
	locationID, ok := locations[tf.Location]
	if !ok {
		return nil, fmt.Errorf("unknown location %q", tf.Location)
	}

	t := &domain.ShiftTemplate{
		Name:            tf.Name,
		LocationID:      locationID,
		StartTime:       tf.StartTime,
		EndTime:         tf.EndTime,
		CrossesMidnight: tf.CrossesMidnight,
		BreakMinutes:    tf.BreakMinutes,
		MinGuards:       tf.MinGuards,
		MaxGuards:       tf.MaxGuards,
		OptimalGuards:   tf.OptimalGuards,
		Status:          domain.TemplateStatusAwaitingShiftCreation,
		IsActive:        true,
	}
	if tf.ContractID > 0 {
		contractID := tf.ContractID
		t.ContractID = &contractID
	}
	if tf.Team != "" {
		teamID, ok := teams[tf.Team]
		if !ok {
			return nil, fmt.Errorf("unknown team %q", tf.Team)
		}
		t.TeamID = &teamID
	}

	if err := setDays(t, tf.Days); err != nil {
		return nil, err
	}

	from, err := time.ParseInLocation(time.DateOnly, tf.EffectiveFrom, loc)
	if err != nil {
		return nil, fmt.Errorf("effectiveFrom: %w", err)
	}
	t.EffectiveFrom = from
	if tf.EffectiveTo != "" {
		to, err := time.ParseInLocation(time.DateOnly, tf.EffectiveTo, loc)
		if err != nil {
			return nil, fmt.Errorf("effectiveTo: %w", err)
		}
		t.EffectiveTo = &to
	}

	return t, nil
}

// setDays applies ISO weekday numbers; an empty list means every day.
func setDays(t *domain.ShiftTemplate, days []int) error {
	if len(days) == 0 {
		days = []int{1, 2, 3, 4, 5, 6, 7}
	}
	for _, d := range days {
		switch d {
		case 1:
			t.AppliesMonday = true
		case 2:
			t.AppliesTuesday = true
		case 3:
			t.AppliesWednesday = true
		case 4:
			t.AppliesThursday = true
		case 5:
			t.AppliesFriday = true
		case 6:
			t.AppliesSaturday = true
		case 7:
			t.AppliesSunday = true
		default:
			return fmt.Errorf("invalid weekday %d", d)
		}
	}
	return nil
}
