package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ljpjt/tortbench/internal/model"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate [filename]",
	Short: "Fetch the evaluation of an uploaded submission",
	Long: `Evaluate fetches the scores of a submission that was already uploaded
and validated, and stores them under evaluation_results/<mode>/.

Without an argument the submission filename of the configured system and
test set is used.

Example:
  tortbench evaluate
  tortbench evaluate cases_v1_teamA_uniX_sysY.jsonl --mode submission`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return err
		}

		filename := model.SubmissionFilename(cfg.Settings.TestData, cfg.System.Team, cfg.System.Affiliation, cfg.System.Name)
		if len(args) == 1 {
			filename = args[0]
		}

		ctx, cancel := commandContext(runTimeout)
		defer cancel()

		p, err := newPipeline(ctx, cfg)
		if err != nil {
			return err
		}

		evaluation, storedAs, err := p.Evaluate(ctx, filename)
		if err != nil {
			return fmt.Errorf("evaluate failed: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✓ Stored evaluation of %s as %s\n\n", filename, storedAs)
		printEvaluation(os.Stdout, evaluation)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}
