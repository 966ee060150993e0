package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ljpjt/tortbench/internal/cache"
	"github.com/ljpjt/tortbench/internal/client"
	"github.com/ljpjt/tortbench/internal/model"
	"github.com/ljpjt/tortbench/internal/poll"
	"github.com/ljpjt/tortbench/internal/predict"
	"github.com/ljpjt/tortbench/internal/store"
	"github.com/ljpjt/tortbench/internal/validate"
)

// Source supplies the test set
type Source interface {
	Download(ctx context.Context, filename string) ([]byte, []model.Tort, error)
}

// Uploader sends a submission to the intake endpoint
type Uploader interface {
	Submit(ctx context.Context, sub model.Submission) error
}

// Gate blocks until a submission token is validated
type Gate interface {
	WaitFrom(ctx context.Context, base time.Time, team, token string) (poll.Outcome, error)
}

// Evaluator fetches the scored result of a validated submission
type Evaluator interface {
	Evaluate(ctx context.Context, mode, filename string) (*model.EvaluationResult, error)
}

// Recorder persists run artifacts
type Recorder interface {
	SaveDataset(ctx context.Context, filename string, raw []byte) (string, error)
	SaveSubmission(ctx context.Context, filename string, torts []model.Tort) (string, error)
	SaveEvaluation(ctx context.Context, filename string, raw []byte) (string, error)
}

// Pipeline orchestrates one benchmark run:
// download, predict, upload, wait for validation, evaluate, persist.
type Pipeline struct {
	cfg       *model.Config
	source    Source
	uploader  Uploader
	gate      Gate
	evaluator Evaluator
	recorder  Recorder
	newToken  func() string
	now       func() time.Time
	logger    *slog.Logger
}

// Option overrides a pipeline collaborator
type Option func(*Pipeline)

// WithSource replaces the test set source
func WithSource(s Source) Option { return func(p *Pipeline) { p.source = s } }

// WithUploader replaces the submission uploader
func WithUploader(u Uploader) Option { return func(p *Pipeline) { p.uploader = u } }

// WithGate replaces the validation wait
func WithGate(g Gate) Option { return func(p *Pipeline) { p.gate = g } }

// WithEvaluator replaces the evaluation fetcher
func WithEvaluator(e Evaluator) Option { return func(p *Pipeline) { p.evaluator = e } }

// WithRecorder replaces result persistence
func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// WithTokens replaces the token generator
func WithTokens(f func() string) Option { return func(p *Pipeline) { p.newToken = f } }

// WithClock replaces the time source used for base time and file stamps
func WithClock(f func() time.Time) Option { return func(p *Pipeline) { p.now = f } }

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline wires the default collaborators from cfg. Options are applied
// after, so tests can swap any of them.
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		newToken: uuid.NewString,
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.source == nil || p.uploader == nil || p.gate == nil || p.evaluator == nil {
		c := client.New(cfg, client.WithLogger(p.logger))
		if p.source == nil {
			p.source = c
			if cfg.Cache.Enabled {
				p.source = newCachedSource(c, cache.New(cfg.Cache.Dir, cfg.Cache.TTL), cfg.API.BaseURL, p.logger)
			}
		}
		if p.uploader == nil {
			p.uploader = c
		}
		if p.evaluator == nil {
			p.evaluator = c
		}
		if p.gate == nil {
			p.gate = poll.NewScheduler(
				validate.NewTokenValidator(c, p.logger),
				poll.Config{Interval: cfg.Poll.Interval, Timeout: cfg.Poll.Timeout},
				poll.WithLogger(p.logger),
			)
		}
	}
	if p.recorder == nil {
		p.recorder = store.New(cfg.Settings.Mode, store.NewLocalBackend(cfg.Paths.Root))
	}

	return p
}

// RunResult describes a completed run
type RunResult struct {
	Token       string
	Filename    string // remote submission filename
	StoredAs    string // timestamped local filename
	Checks      int
	WaitElapsed time.Duration
	Evaluation  *model.EvaluationResult
}

// Run performs one benchmark run with predictor. Nothing is persisted
// unless the token is validated and the evaluation is fetched; TIMEOUT and
// QUOTA_EXCEEDED are returned as *poll.Error.
func (p *Pipeline) Run(ctx context.Context, predictor predict.Predictor) (*RunResult, error) {
	testData := p.cfg.Settings.TestData

	// 1. Download test set
	torts, err := p.Download(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Predict
	predicted, err := predictor.Predict(ctx, torts)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if err := model.VerifyPrediction(torts, predicted); err != nil {
		return nil, fmt.Errorf("invalid prediction: %w", err)
	}

	// 3. Upload under a fresh token
	sub := model.Submission{
		Token:    p.newToken(),
		Filename: model.SubmissionFilename(testData, p.cfg.System.Team, p.cfg.System.Affiliation, p.cfg.System.Name),
		Mode:     p.cfg.Settings.Mode,
		Torts:    predicted,
	}

	base := p.now()
	if err := p.uploader.Submit(ctx, sub); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	p.logger.Info("submission uploaded", "filename", sub.Filename, "torts", len(sub.Torts))

	// 4. Wait for validation
	outcome, err := p.gate.WaitFrom(ctx, base, p.cfg.System.Team, sub.Token)
	if err != nil {
		return nil, fmt.Errorf("wait for validation: %w", err)
	}
	p.logger.Info("token validated", "checks", outcome.Checks, "elapsed", outcome.Elapsed)

	// 5. Evaluate
	evaluation, storedAs, err := p.evaluate(ctx, sub.Filename)
	if err != nil {
		return nil, err
	}

	// 6. Persist
	if _, err := p.recorder.SaveSubmission(ctx, storedAs, sub.Torts); err != nil {
		return nil, fmt.Errorf("save submission: %w", err)
	}
	if _, err := p.recorder.SaveEvaluation(ctx, storedAs, evaluation.Raw); err != nil {
		return nil, fmt.Errorf("save evaluation: %w", err)
	}

	return &RunResult{
		Token:       sub.Token,
		Filename:    sub.Filename,
		StoredAs:    storedAs,
		Checks:      outcome.Checks,
		WaitElapsed: outcome.Elapsed,
		Evaluation:  evaluation,
	}, nil
}

// Download fetches the configured test set and stores it under dataset/
func (p *Pipeline) Download(ctx context.Context) ([]model.Tort, error) {
	testData := p.cfg.Settings.TestData

	raw, torts, err := p.source.Download(ctx, testData)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", testData, err)
	}
	if _, err := p.recorder.SaveDataset(ctx, testData, raw); err != nil {
		return nil, fmt.Errorf("save dataset: %w", err)
	}

	return torts, nil
}

// Evaluate fetches and stores the evaluation of an already uploaded
// submission, returning the timestamped filename it was stored under.
func (p *Pipeline) Evaluate(ctx context.Context, filename string) (*model.EvaluationResult, string, error) {
	evaluation, storedAs, err := p.evaluate(ctx, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := p.recorder.SaveEvaluation(ctx, storedAs, evaluation.Raw); err != nil {
		return nil, "", fmt.Errorf("save evaluation: %w", err)
	}
	return evaluation, storedAs, nil
}

func (p *Pipeline) evaluate(ctx context.Context, filename string) (*model.EvaluationResult, string, error) {
	evaluation, err := p.evaluator.Evaluate(ctx, p.cfg.Settings.Mode, filename)
	if err != nil {
		return nil, "", fmt.Errorf("evaluate %s: %w", filename, err)
	}
	storedAs := model.TimestampedFilename(filename, p.now())
	p.logger.Info("evaluation fetched", "filename", filename, "revisions", evaluation.NumOfRevisions, "stored_as", storedAs)
	return evaluation, storedAs, nil
}
