package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ljpjt/tortbench/internal/store"
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the test set without running a prediction",
	Long: `Download fetches settings.test_data from the benchmark and writes it
verbatim to dataset/<test_data>.

Example:
  tortbench download --test-data cases_v1.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return err
		}
		if useCache {
			cfg.Cache.Enabled = true
		}

		ctx, cancel := commandContext(runTimeout)
		defer cancel()

		p, err := newPipeline(ctx, cfg)
		if err != nil {
			return err
		}

		torts, err := p.Download(ctx)
		if err != nil {
			return fmt.Errorf("download failed: %w", err)
		}

		fmt.Fprintf(os.Stderr, "✓ Downloaded %d cases to %s\n", len(torts), store.NewLocalBackend(cfg.Paths.Root).Path(store.DatasetKey(cfg.Settings.TestData)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	downloadCmd.Flags().BoolVar(&useCache, "cache", false, "reuse a cached copy of the test set")
}
