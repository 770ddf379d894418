package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/assignment"
	"github.com/sysu-ecnc-dev/guard-roster/backend/internal/generator"
)

var (
	genContractID  int64
	genFrom        string
	genTo          string
	genTemplateIDs []int64
	genAutoAssign  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate shifts for a contract",
	Long: `Expand the contract's active shift templates into shifts over [from, to).

Shifts that already exist are skipped, so the command can be re-run safely.
With --auto-assign, templates that name a team get that team assigned to
every new shift.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().Int64Var(&genContractID, "contract", 0, "contract ID")
	generateCmd.Flags().StringVar(&genFrom, "from", "", "first day, inclusive (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&genTo, "to", "", "last day, exclusive (YYYY-MM-DD)")
	generateCmd.Flags().Int64SliceVar(&genTemplateIDs, "templates", nil, "restrict generation to these template IDs")
	generateCmd.Flags().BoolVar(&genAutoAssign, "auto-assign", true, "assign template teams to new shifts")
	_ = generateCmd.MarkFlagRequired("contract")
	_ = generateCmd.MarkFlagRequired("from")
	_ = generateCmd.MarkFlagRequired("to")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	from, err := a.parseDate(genFrom)
	if err != nil {
		return err
	}
	to, err := a.parseDate(genTo)
	if err != nil {
		return err
	}

	gen := a.generator()
	if genAutoAssign {
		gen.SetHook(assignment.NewAutoAssignBridge(a.orchestrator(), a.loc, a.logger))
	}

	result, err := gen.Generate(cmd.Context(), generator.Request{
		ContractID:  genContractID,
		TemplateIDs: genTemplateIDs,
		From:        from,
		To:          to,
	})
	if result != nil {
		if perr := printResult(cmd.OutOrStdout(), result); perr != nil {
			return errors.Join(err, perr)
		}
	}
	return err
}
