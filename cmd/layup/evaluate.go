package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/report"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/models"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <problem.yaml> <layup>",
	Short: "Evaluate a stacking sequence",
	Long: `Evaluates a layup such as "[45/-45/0/90]s" under the problem's material, load
and constraints, and prints stiffness, weight, failure margin, score and
violations as JSON. Plies take the problem's ply thickness and material.`,
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
		search, err := anneal.NewSearch(p, logger.With("component", "evaluate"))
		if err != nil {
			return err
		}
		a, err := report.Assess(search, seq)
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		return report.WriteJSON(cmd.OutOrStdout(), a)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
