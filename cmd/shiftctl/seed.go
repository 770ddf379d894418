package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/utils"
)

var (
	seedFile        string
	seedGuards      int
	seedTeams       int
	seedContractID  int64
	seedLocationID  int64
	seedEmailDomain string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load fixture data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := seed.LoadFile(cmd.Context(), a.repo, seedFile, a.loc, a.logger)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), sum)
	},
}

var seedRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Insert random guards, teams and templates",
	RunE:  runSeedRandom,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "fixtures.yaml", "YAML fixture file")

	seedRandomCmd.Flags().IntVar(&seedGuards, "guards", 12, "number of guards")
	seedRandomCmd.Flags().IntVar(&seedTeams, "teams", 3, "number of teams")
	seedRandomCmd.Flags().Int64Var(&seedContractID, "contract", 1, "contract ID of the generated templates")
	seedRandomCmd.Flags().Int64Var(&seedLocationID, "location", 0, "location ID (a new location is created when 0)")
	seedRandomCmd.Flags().StringVar(&seedEmailDomain, "email-domain", "example.com", "domain of generated guard emails")
	seedCmd.AddCommand(seedRandomCmd)
}

func runSeedRandom(cmd *cobra.Command, args []string) error {
	if seedGuards <= 0 || seedTeams <= 0 {
		return fmt.Errorf("guards and teams must be positive")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	locationID := seedLocationID
	if locationID == 0 {
		l := &domain.Location{Name: "Site " + utils.GenerateRandomID(3, 3), Address: "Ho Chi Minh City"}
		if err := a.repo.CreateLocation(ctx, l); err != nil {
			return fmt.Errorf("create location: %w", err)
		}
		locationID = l.ID
	}

	guardIDs := make([]int64, 0, seedGuards)
	for range seedGuards {
		g := utils.GenerateRandomGuard(seedEmailDomain)
		if err := a.repo.CreateGuard(ctx, g); err != nil {
			a.logger.Error("failed to insert guard", "error", err)
			continue
		}
		guardIDs = append(guardIDs, g.ID)
	}

	var seeded seed.Summary
	seeded.Locations = 1
	seeded.Guards = len(guardIDs)

	today := domain.DateIn(time.Now(), a.loc)
	for range seedTeams {
		team := utils.GenerateRandomTeam()
		if err := a.repo.CreateTeam(ctx, team); err != nil {
			a.logger.Error("failed to insert team", "error", err)
			continue
		}
		seeded.Teams++

		members := utils.GenerateRandomSubset(guardIDs)
		for i, guardID := range members {
			role := domain.TeamRoleMember
			if i == 0 {
				role = domain.TeamRoleLeader
			}
			if err := a.repo.AddTeamMember(ctx, &domain.TeamMember{TeamID: team.ID, GuardID: guardID, Role: role, IsActive: true}); err != nil {
				a.logger.Error("failed to insert team member", "teamID", team.ID, "guardID", guardID, "error", err)
				continue
			}
			seeded.Members++
		}

		var teamID *int64
		if rand.Intn(2) == 0 {
			teamID = &team.ID
		}
		t := utils.GenerateRandomShiftTemplate(seedContractID, locationID, teamID, today)
		if err := a.repo.CreateShiftTemplate(ctx, t); err != nil {
			a.logger.Error("failed to insert shift template", "error", err)
			continue
		}
		seeded.Templates++
	}

	a.logger.Info("random data inserted", "guards", seeded.Guards, "teams", seeded.Teams, "templates", seeded.Templates)
	return printResult(cmd.OutOrStdout(), seeded)
}
