package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/domain"
)

var (
	assignTeamID     int64
	assignLocationID int64
	assignContractID int64
	assignFrom       string
	assignTo         string
	assignSlot       string
	assignNotes      string
	assignDryRun     bool
)

var assignTeamCmd = &cobra.Command{
	Use:   "assign-team",
	Short: "Assign a team to a location's shifts over a date range",
	Long: `Assign every active member of a team to the shift in the given time slot on
each day of [from, to].

The whole request is rejected if the team already works for another contract
in that slot. With --dry-run only the conflict preview is printed.`,
	RunE: runAssignTeam,
}

func init() {
	assignTeamCmd.Flags().Int64Var(&assignTeamID, "team", 0, "team ID")
	assignTeamCmd.Flags().Int64Var(&assignLocationID, "location", 0, "location ID")
	assignTeamCmd.Flags().Int64Var(&assignContractID, "contract", 0, "contract ID (0 for none)")
	assignTeamCmd.Flags().StringVar(&assignFrom, "from", "", "first day, inclusive (YYYY-MM-DD)")
	assignTeamCmd.Flags().StringVar(&assignTo, "to", "", "last day, inclusive (YYYY-MM-DD)")
	assignTeamCmd.Flags().StringVar(&assignSlot, "slot", "", "MORNING, AFTERNOON or EVENING")
	assignTeamCmd.Flags().StringVar(&assignNotes, "notes", "", "notes stored on each assignment")
	assignTeamCmd.Flags().BoolVar(&assignDryRun, "dry-run", false, "only report conflicts")
	for _, name := range []string{"team", "location", "from", "to", "slot"} {
		_ = assignTeamCmd.MarkFlagRequired(name)
	}
}

func runAssignTeam(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	slot, err := domain.ParseTimeSlot(assignSlot)
	if err != nil {
		return err
	}
	from, err := a.parseDate(assignFrom)
	if err != nil {
		return err
	}
	to, err := a.parseDate(assignTo)
	if err != nil {
		return err
	}

	req := assignment.Request{
		TeamID:         assignTeamID,
		LocationID:     assignLocationID,
		From:           from,
		To:             to,
		Slot:           slot,
		Notes:          assignNotes,
		AssignmentType: domain.AssignmentTypeTeam,
	}
	if assignContractID > 0 {
		req.ContractID = &assignContractID
	}

	orchestrator := a.orchestrator()
	if assignDryRun {
		preview, err := orchestrator.PreviewConflicts(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), preview)
	}

	result, err := orchestrator.AssignTeam(cmd.Context(), req)
	if result != nil {
		if perr := printResult(cmd.OutOrStdout(), result); perr != nil {
			return errors.Join(err, perr)
		}
	}
	return err
}
