package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ljpjt/tortbench/internal/model"
)

// Version of the tortbench client
const Version = "0.3.0"

var (
	cfgFile    string
	envFile    string
	verbose    bool
	runTimeout time.Duration
)

// configKeys are the settings viper resolves from env and config file.
// Every key is reachable as TORTBENCH_<KEY> with dots replaced by underscores.
var configKeys = []string{
	"api.base_url",
	"api.key",
	"system.team",
	"system.affiliation",
	"system.name",
	"settings.test_data",
	"settings.mode",
	"http.connect_timeout",
	"http.read_timeout",
	"http.user_agent",
	"http.http_proxy",
	"http.https_proxy",
	"http.no_proxy",
	"rate_limiting.requests_per_second",
	"rate_limiting.burst_size",
	"poll.interval",
	"poll.timeout",
	"paths.root",
	"cache.enabled",
	"cache.dir",
	"cache.ttl",
	"storage.s3_bucket",
	"storage.s3_region",
	"storage.s3_prefix",
	"storage.aws_access_key",
	"storage.aws_secret_key",
	"predictor.kind",
	"predictor.model",
	"predictor.base_url",
	"predictor.api_key",
	"predictor.workers",
	"predictor.seed",
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tortbench",
	Short: "tortbench - client for the tort judgment prediction benchmark",
	Long: `tortbench runs a system against the tort judgment prediction benchmark.

A run downloads the test set, predicts court decisions and claim
acceptance, uploads the predictions under a fresh token, waits until the
benchmark validates the token and stores the submission together with
its evaluation.

Results are written under:
  dataset/                     raw test sets
  submissions/<mode>/          uploaded predictions
  evaluation_results/<mode>/   scores returned by the benchmark`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tortbench v%s (api %s)\n", Version, model.APIVersion)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.tortbench/config.yaml)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.DurationVar(&runTimeout, "timeout", 0, "overall command timeout (0 means none)")
	flags.String("test-data", "", "test set filename, e.g. cases_v1.jsonl")
	flags.String("mode", "", "run mode (practice, submission)")
	flags.String("root", "", "directory holding dataset/, submissions/ and evaluation_results/")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, config file and ENV variables
func initConfig() {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: could not load %s: %v\n", envFile, err)
		}
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".tortbench"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match TORTBENCH_*
	viper.SetEnvPrefix("TORTBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the effective configuration: defaults, then config
// file, then environment, then flags.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	// Flags left at their zero default must not clear configured values
	flags := rootCmd.PersistentFlags()
	override := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	override("test-data", &cfg.Settings.TestData)
	override("mode", &cfg.Settings.Mode)
	override("root", &cfg.Paths.Root)

	return cfg, nil
}

// loadRunConfig is loadConfig for commands that talk to the benchmark
func loadRunConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr when --verbose is set
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
