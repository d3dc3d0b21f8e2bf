package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/screens/assessment"
	"github.com/abhisek/englevel/internal/sessioncache"
	"github.com/abhisek/englevel/internal/ui/layout"
)

var takeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take a placement test in the terminal",
	Long: "Take an adaptive placement test. Pick multiple-choice answers with the\n" +
		"arrow keys or their number, type free-text answers, and press Esc to\n" +
		"finish early.\n\n" +
		"The built-in bank centres on B1 and cannot recommend C1 or C2; results\n" +
		"top out at B2. Use --bank or 'bank import' with a larger bank to place\n" +
		"learners at the top levels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		learner, _ := cmd.Flags().GetString("learner")
		bankPath, _ := cmd.Flags().GetString("bank")
		maxQuestions, _ := cmd.Flags().GetInt("max")
		seed, _ := cmd.Flags().GetUint64("seed")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, cleanup, err := newLogger(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		s, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		supplier, err := questionSupplier(ctx, cfg, bankPath, s, logger)
		if err != nil {
			return err
		}
		publisher, err := newPublisher(cfg, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()

		opts := serviceOptions(cfg)
		if maxQuestions > 0 {
			opts.MaxQuestions = maxQuestions
		}
		if seed != 0 {
			opts.Seed = seed
		}
		svc, err := attempt.NewService(attempt.Deps{
			Supplier:  supplier,
			Sink:      s.AttemptRepo(),
			History:   s.AttemptRepo(),
			Cache:     sessioncache.NewMemory(0),
			Publisher: publisher,
			Logger:    logger,
		}, opts)
		if err != nil {
			return err
		}

		return runTake(ctx, svc, learner, logger.Named("take"), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	takeCmd.Flags().String("learner", "", "Learner ID used for history and question rotation")
	takeCmd.Flags().String("bank", "", "Question bank JSON file (defaults to database or built-in bank)")
	takeCmd.Flags().Int("max", 0, "Number of questions (defaults to config)")
	takeCmd.Flags().Uint64("seed", 0, "Random seed for question selection")
}

// runTake runs the assessment screen and prints the result once the
// terminal is released.
func runTake(ctx context.Context, svc assessment.Service, learner string, logger *zap.Logger, in io.Reader, out io.Writer) error {
	m := assessment.New(ctx, svc, learner, logger)
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run assessment: %w", err)
	}
	if fm, ok := final.(*assessment.Model); ok {
		m = fm
	}
	return reportTake(out, m)
}

func reportTake(out io.Writer, m *assessment.Model) error {
	if err := m.Err(); err != nil {
		if errors.Is(err, assessment.ErrInterrupted) {
			fmt.Fprintln(out, "Assessment abandoned.")
			return nil
		}
		return fmt.Errorf("assessment: %w", err)
	}
	if res := m.Result(); res != nil {
		fmt.Fprintln(out, assessment.RenderResult(res, layout.DefaultWidth))
	}
	return nil
}
