package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/englevel/internal/questionbank"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Validate, import and export question banks",
}

var bankValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a question bank file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := questionbank.LoadFile(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d valid questions, %d grammar topics\n", args[0], bank.Len(), bank.Topics())
		rejected := bank.Rejected()
		for _, r := range rejected {
			fmt.Fprintf(out, "  rejected: %v\n", r)
		}
		if len(rejected) > 0 {
			return fmt.Errorf("%d questions rejected", len(rejected))
		}
		return nil
	},
}

var bankImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import questions into the database",
	Long:  "Import questions from a bank file, or the built-in bank with --seed. Existing IDs are skipped.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		useSeed, _ := cmd.Flags().GetBool("seed")

		var bank *questionbank.Bank
		switch {
		case len(args) == 1:
			b, err := questionbank.LoadFile(args[0])
			if err != nil {
				return err
			}
			bank = b
		case useSeed:
			bank = questionbank.Seed()
		default:
			return fmt.Errorf("pass a bank file or --seed")
		}

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
		n, err := s.QuestionRepo().Import(ctx, bank.All())
		if err != nil {
			return fmt.Errorf("import questions: %w", err)
		}
		total, err := s.QuestionRepo().Count(ctx)
		if err != nil {
			return fmt.Errorf("count questions: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d questions (%d skipped, %d rejected). Database holds %d.\n",
			n, bank.Len()-n, len(bank.Rejected()), total)
		return nil
	},
}

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the built-in question bank as JSON",
	Long: "Write the built-in question bank as JSON, as a starting point for a\n" +
		"larger bank.\n\n" +
		"The built-in bank is a small sample centred on B1. An assessment draws\n" +
		"the topics nearest its starting level, so results from this bank never\n" +
		"reach C1 or C2 and top out at B2. Add more C1/C2 questions and import\n" +
		"the result with 'bank import' to reach the top levels.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			return questionbank.Encode(cmd.OutOrStdout(), questionbank.SeedQuestions())
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := questionbank.Encode(f, questionbank.SeedQuestions()); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	bankImportCmd.Flags().Bool("seed", false, "Import the built-in bank")
	bankExportCmd.Flags().String("out", "", "Output file (defaults to stdout)")

	bankCmd.AddCommand(bankValidateCmd)
	bankCmd.AddCommand(bankImportCmd)
	bankCmd.AddCommand(bankExportCmd)
}
