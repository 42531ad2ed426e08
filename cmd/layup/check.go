package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/layup-core/internal/constraint"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

var errInfeasible = errors.New("layup violates constraints")

var checkCmd = &cobra.Command{
	Use:   "check <problem.yaml> <layup>",
	Short: "Check a stacking sequence against the design rules",
	Long: `Checks symmetry, balance, orientation quotas, ply count, allowed orientations
and ply thickness. Exits non-zero when any rule is violated. Strength is not
checked; use evaluate for the failure margin.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProblem(args[0])
		if err != nil {
			return err
		}
		seq, err := models.ParseLayup(args[1], p.Ply.Thickness, p.Ply.Material)
		if err != nil {
			return err
		}
		checker, err := constraint.NewCheckerFromConfig(p)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		violations := checker.Explain(seq)
		if len(violations) == 0 {
			fmt.Fprintf(w, "%s: feasible (%d plies)\n", seq, seq.Len())
			return nil
		}
		fmt.Fprintf(w, "%s: %d violation(s)\n", seq, len(violations))
		for _, v := range violations {
			fmt.Fprintf(w, "  %-24s %s\n", v.Kind, v.Detail)
		}
		return errInfeasible
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
