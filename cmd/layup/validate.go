package main

import (
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <problem.yaml>",
	Short: "Validate a problem file and print it with defaults applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProblem(args[0])
		if err != nil {
			return err
		}
		out, err := config.MarshalProblemYAML(p)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
