package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/layup-core/internal/anneal"
	"github.com/GoSim-25-26J-441/layup-core/internal/report"
	"github.com/GoSim-25-26J-441/layup-core/pkg/config"
	"github.com/GoSim-25-26J-441/layup-core/pkg/logger"
	"github.com/GoSim-25-26J-441/layup-core/pkg/utils"
)

var (
	outDir        string
	seed          int64
	runs          int
	parallelism   int
	maxIterations int
	timeout       time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <problem.yaml>",
	Short: "Optimize a stacking sequence",
	Long: `Runs independent simulated-annealing instances on the problem and writes the
best design as result.json, result.xlsx and trace.html into the output directory.
Interrupting the run keeps the best design found so far.`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&outDir, "out", "out", "Output directory")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (overrides random_seed)")
	runCmd.Flags().IntVar(&runs, "runs", 0, "Independent instances (overrides runs)")
	runCmd.Flags().IntVar(&parallelism, "parallelism", 0, "Instances run at once (overrides parallelism)")
	runCmd.Flags().IntVar(&maxIterations, "iters", 0, "Max iterations per instance (overrides annealing.max_iterations)")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop every instance after this duration (overrides timeout)")

	rootCmd.AddCommand(runCmd)
}

// applyOverrides copies the flags the user set onto p and revalidates it
func applyOverrides(cmd *cobra.Command, p *config.Problem) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		p.RandomSeed = seed
	}
	if flags.Changed("runs") {
		p.Runs = runs
		if !flags.Changed("parallelism") {
			p.Parallelism = runs
		}
	}
	if flags.Changed("parallelism") {
		p.Parallelism = parallelism
	}
	if flags.Changed("iters") {
		p.Annealing.MaxIterations = maxIterations
	}
	if flags.Changed("timeout") {
		p.Timeout = timeout.String()
	}
	return config.Validate(p)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	p, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	if err := applyOverrides(cmd, p); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	search, err := anneal.NewSearch(p, logger.With("component", "search"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := utils.GenerateRunID()
	start := time.Now()
	batch, runErr := search.Run(ctx)
	elapsed := time.Since(start)

	r := report.New(runID, batch, runErr)
	paths, err := report.WriteFiles(outDir, r)
	if err != nil {
		return err
	}
	logger.Info("report written", "files", paths, "elapsed", elapsed)

	if runErr != nil {
		if errors.Is(runErr, anneal.ErrNoFeasibleSolution) {
			fmt.Fprintln(cmd.ErrOrStderr(), "no feasible design found; relax the constraints or increase iterations")
		}
		return runErr
	}
	printResult(cmd.OutOrStdout(), batch, elapsed)
	return nil
}

func printResult(w io.Writer, batch *anneal.BatchResult, elapsed time.Duration) {
	b := batch.Best
	e := b.Evaluation
	fmt.Fprintf(w, "Layup:               %s\n", b.Layup)
	fmt.Fprintf(w, "Plies:               %d\n", b.Sequence.Len())
	fmt.Fprintf(w, "Score (%s): %.6g\n", b.Objective, b.Score)
	fmt.Fprintf(w, "D11:                 %.6g N·m\n", e.BendingStiffness)
	fmt.Fprintf(w, "Effective stiffness: %.6g N·m\n", e.EffectiveStiffness)
	fmt.Fprintf(w, "Areal weight:        %.6g kg/m²\n", e.ArealWeight)
	fmt.Fprintf(w, "Failure margin:      %.4f (ply %d, %s)\n", e.FailureMargin, e.CriticalPly, e.FailureMode)
	fmt.Fprintf(w, "Best instance:       %d of %d (%s)\n", batch.BestIndex, len(batch.Instances), b.Reason)
	fmt.Fprintf(w, "Evaluations:         %d in %s\n", batch.Stats.Evaluations, elapsed.Round(time.Millisecond))
}
