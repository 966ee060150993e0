package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ljpjt/tortbench/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the test set cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached test set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL).Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}

		fmt.Printf("✓ Cleared %s\n", cfg.Cache.Dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
