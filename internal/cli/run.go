package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ljpjt/tortbench/internal/model"
	"github.com/ljpjt/tortbench/internal/pipeline"
	"github.com/ljpjt/tortbench/internal/poll"
	"github.com/ljpjt/tortbench/internal/predict"
	"github.com/ljpjt/tortbench/internal/store"
)

var (
	predictorKind string
	predictorSeed uint64
	useCache      bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full benchmark pipeline",
	Long: `Run downloads the test set, predicts every case, uploads the
predictions under a fresh token, waits for the token to be validated and
stores the submission together with its evaluation.

The wait checks the token every poll.interval, aligned to the moment of
upload, and gives up after poll.timeout. Nothing is stored when the wait
times out or the revision limit is exceeded.

Example:
  tortbench run --test-data cases_v1.jsonl
  tortbench run --mode submission --predictor openai
  TORTBENCH_POLL_TIMEOUT=20m tortbench run`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&predictorKind, "predictor", "", "predictor (random, openai); overrides predictor.kind")
	runCmd.Flags().Uint64Var(&predictorSeed, "seed", 0, "seed for the random predictor (0 picks one)")
	runCmd.Flags().BoolVar(&useCache, "cache", false, "reuse a cached copy of the test set")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("predictor") {
		cfg.Predictor.Kind = predictorKind
	}
	if cmd.Flags().Changed("seed") {
		cfg.Predictor.Seed = predictorSeed
	}
	if useCache {
		cfg.Cache.Enabled = true
	}

	ctx, cancel := commandContext(runTimeout)
	defer cancel()

	predictor, err := predict.New(cfg.Predictor)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Test data:    %s\n", cfg.Settings.TestData)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", cfg.Settings.Mode)
	fmt.Fprintf(os.Stderr, "  System:       %s / %s / %s\n", cfg.System.Team, cfg.System.Affiliation, cfg.System.Name)
	fmt.Fprintf(os.Stderr, "  Predictor:    %s\n", cfg.Predictor.Kind)
	fmt.Fprintf(os.Stderr, "  Poll:         every %v, up to %v\n", cfg.Poll.Interval, cfg.Poll.Timeout)
	fmt.Fprintf(os.Stderr, "\n")

	result, err := p.Run(ctx, predictor)
	if err != nil {
		var pollErr *poll.Error
		switch {
		case errors.Is(err, poll.ErrQuotaExceeded):
			fmt.Fprintf(os.Stderr, "✗ Revision limit exceeded for mode %q; nothing was stored\n", cfg.Settings.Mode)
		case errors.As(err, &pollErr):
			fmt.Fprintf(os.Stderr, "✗ Token not validated after %d checks (%v); nothing was stored\n", pollErr.Checks, pollErr.Elapsed.Round(time.Second))
		}
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Uploaded %s (token %s)\n", result.Filename, result.Token)
	fmt.Fprintf(os.Stderr, "✓ Token validated after %d checks (%v)\n", result.Checks, result.WaitElapsed.Round(time.Second))
	fmt.Fprintf(os.Stderr, "✓ Stored as %s\n\n", result.StoredAs)

	printEvaluation(os.Stdout, result.Evaluation)
	return nil
}

// newPipeline builds a pipeline whose results go to the local tree and,
// when storage.s3_bucket is set, to S3 as well.
func newPipeline(ctx context.Context, cfg *model.Config) (*pipeline.Pipeline, error) {
	backends := []store.Backend{store.NewLocalBackend(cfg.Paths.Root)}
	if cfg.Storage.S3Bucket != "" {
		s3Backend, err := store.NewS3Backend(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		backends = append(backends, s3Backend)
	}

	return pipeline.NewPipeline(cfg,
		pipeline.WithRecorder(store.New(cfg.Settings.Mode, backends...)),
		pipeline.WithLogger(newLogger()),
	), nil
}

// commandContext is cancelled on interrupt and, if timeout is positive,
// when it elapses.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func printEvaluation(w io.Writer, e *model.EvaluationResult) {
	tp := e.TortPrediction
	re := e.RationaleExtraction

	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintln(w, "  Evaluation")
	_, _ = fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	_, _ = fmt.Fprintf(w, "  Revisions used:      %d\n\n", e.NumOfRevisions)
	_, _ = fmt.Fprintf(w, "  Tort prediction\n")
	_, _ = fmt.Fprintf(w, "    accuracy           %.4f  (%d/%d correct, %d evaluated)\n\n",
		tp.Accuracy, tp.NumOfCorrectAnswers, tp.NumOfTopics, tp.NumOfEvaluatedAnswers)
	_, _ = fmt.Fprintf(w, "  Rationale extraction  %-8s %-8s %-8s %s\n", "F1", "recall", "prec.", "correct/topics")
	for _, side := range []struct {
		name  string
		score model.SideScore
	}{
		{"all", re.All},
		{"plaintiff", re.Plaintiff},
		{"defendant", re.Defendant},
	} {
		s := side.score
		_, _ = fmt.Fprintf(w, "    %-19s %-8.4f %-8.4f %-8.4f %d/%d\n",
			side.name, s.F1, s.Recall, s.Precision, s.NumOfCorrectAnswers, s.NumOfTopics)
	}
	_, _ = fmt.Fprintln(w)
}
