package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/cefr"
	"github.com/abhisek/englevel/internal/simulate"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Place synthetic learners of a known level",
	Long: "Run synthetic learners with a known true level through the engine and show\n" +
		"the distribution of recommended levels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		trueLevel, _ := cmd.Flags().GetString("true-level")
		runs, _ := cmd.Flags().GetInt("runs")
		seed, _ := cmd.Flags().GetUint64("seed")
		maxQuestions, _ := cmd.Flags().GetInt("max")
		mastery, _ := cmd.Flags().GetFloat64("mastery")
		slope, _ := cmd.Flags().GetFloat64("slope")
		bankPath, _ := cmd.Flags().GetString("bank")
		asJSON, _ := cmd.Flags().GetBool("json")

		level, err := cefr.Parse(trueLevel)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, cleanup, err := newLogger(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		// The simulator never touches the database.
		supplier, err := questionSupplier(ctx, cfg, bankPath, nil, logger)
		if err != nil {
			return err
		}
		pool, err := supplier.Questions(ctx, cefr.Baseline, nil)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}

		learner := simulate.DefaultLearner(level)
		if mastery > 0 {
			learner.Mastery = mastery
		}
		if slope > 0 {
			learner.Slope = slope
		}
		if maxQuestions <= 0 {
			maxQuestions = cfg.Assessment.MaxQuestions
		}

		rep, err := simulate.Run(ctx, pool, simulate.Config{
			Learner:      learner,
			Runs:         runs,
			MaxQuestions: maxQuestions,
			MatchLevel:   cfg.Assessment.MatchLevel,
			Seed:         seed,
		})
		if err != nil {
			return err
		}
		logger.Debug("simulation finished", zap.String("true_level", string(level)), zap.Int("runs", runs))

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		printReport(cmd.OutOrStdout(), rep)
		return nil
	},
}

func init() {
	simulateCmd.Flags().String("true-level", "B1", "True CEFR level of the synthetic learner")
	simulateCmd.Flags().Int("runs", 200, "Number of simulated assessments")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed")
	simulateCmd.Flags().Int("max", 0, "Questions per assessment (defaults to config)")
	simulateCmd.Flags().Float64("mastery", 0, "Chance of a correct answer at the true level (0-1)")
	simulateCmd.Flags().Float64("slope", 0, "How fast accuracy drops above the true level")
	simulateCmd.Flags().String("bank", "", "Question bank JSON file (defaults to the built-in bank)")
	simulateCmd.Flags().Bool("json", false, "Print the report as JSON")
}

func printReport(w io.Writer, rep *simulate.Report) {
	fmt.Fprintf(w, "True level %s, %d runs\n\n", rep.TrueLevel, rep.Runs)
	for _, l := range cefr.All() {
		n := rep.Distribution[l]
		share := float64(n) / float64(rep.Runs)
		marker := " "
		if l == rep.TrueLevel {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-3s %5d  %5.1f%%  %s\n", marker, l, n, share*100, strings.Repeat("█", int(share*40+0.5)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Exact:           %.1f%%\n", rep.ExactRate()*100)
	fmt.Fprintf(w, "Within one:      %.1f%%\n", rep.WithinOneRate()*100)
	fmt.Fprintf(w, "Mean confidence: %.1f\n", rep.MeanConfidence)
	fmt.Fprintf(w, "Mean score:      %.1f%%\n", rep.MeanScore)
	fmt.Fprintf(w, "Level changes:   %.1f per run\n", rep.MeanShifts)
	if rep.Penalized > 0 {
		fmt.Fprintf(w, "Foundation caps: %d\n", rep.Penalized)
	}
}
