package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/englevel/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history <learner>",
	Short: "List a learner's past placements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		recs, err := s.AttemptRepo().ListByLearner(ctx, args[0], store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query attempts: %w", err)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}
		if len(recs) == 0 {
			fmt.Fprintf(out, "No attempts found for %s.\n", args[0])
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-16s  %-5s  %-10s  %-7s  %-9s  %s\n",
			"Seq", "Completed", "Level", "Confidence", "Score", "Questions", "Path")
		fmt.Fprintln(out, strings.Repeat("─", 80))
		for _, r := range recs {
			path := make([]string, len(r.LevelProgression))
			for i, l := range r.LevelProgression {
				path[i] = string(l)
			}
			fmt.Fprintf(out, "%-5d  %-16s  %-5s  %-10.0f  %-7.1f  %-9d  %s\n",
				r.Sequence,
				r.CompletedAt.Local().Format("2006-01-02 15:04"),
				r.RecommendedLevel,
				r.Confidence,
				r.Score,
				r.QuestionsAnswered,
				strings.Join(path, "→"),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of attempts to show (0 for all)")
	historyCmd.Flags().Bool("json", false, "Print attempts as JSON")
}
