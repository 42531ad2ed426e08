package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
)

var (
	logLevel      string
	logFormat     string
	materialsPath string
)

var rootCmd = &cobra.Command{
	Use:   "layup",
	Short: "Composite laminate stacking-sequence optimizer",
	Long: `layup searches symmetric, balanced stacking sequences that maximize bending
stiffness per unit weight with simulated annealing, and evaluates or checks
given sequences with classical laminate theory.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Configure(logLevel, logFormat, os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&materialsPath, "materials", "", "Material table file replacing the problem's materials")
}

// loadProblem loads the problem file, with the --materials table when given
func loadProblem(path string) (*config.Problem, error) {
	if materialsPath != "" {
		return config.LoadProblemWithMaterials(path, materialsPath)
	}
	return config.LoadProblem(path)
}
