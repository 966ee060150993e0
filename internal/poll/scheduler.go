package poll

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ljpjt/tortbench/internal/validate"
)

// Checker asks whether a token has been validated
type Checker interface {
	Check(ctx context.Context, team, token string, isFirst bool) (validate.Verdict, error)
}

// Config sets the check cadence and the total wait budget
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultConfig checks every 10 seconds for up to 10 minutes
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
		Timeout:  600 * time.Second,
	}
}

// Scheduler waits for a submission token to be validated.
//
// The first check runs immediately. Later checks are aligned to multiples of
// Interval measured from the base time, so a slow check does not push the
// following ones back. The budget is checked both before and after each
// sleep, so no check is made once Timeout has elapsed.
type Scheduler struct {
	checker Checker
	clock   Clock
	cfg     Config
	logger  *slog.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLogger sets the logger for state transitions
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a scheduler. A non-positive interval falls back to
// the default one.
func NewScheduler(checker Checker, cfg Config, opts ...Option) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}

	s := &Scheduler{
		checker: checker,
		clock:   RealClock(),
		cfg:     cfg,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Wait drives the state machine to a terminal state using now as base time
func (s *Scheduler) Wait(ctx context.Context, team, token string) (Outcome, error) {
	return s.WaitFrom(ctx, s.clock.Now(), team, token)
}

// WaitFrom drives the state machine to a terminal state, measuring elapsed
// time from base. VALID returns a nil error; TIMEOUT and QUOTA_EXCEEDED
// return *Error. Checker and context errors abort the wait as they are.
func (s *Scheduler) WaitFrom(ctx context.Context, base time.Time, team, token string) (Outcome, error) {
	out := Outcome{State: StateFirstCheck}

	for {
		isFirst := out.State == StateFirstCheck

		verdict, err := s.checker.Check(ctx, team, token, isFirst)
		out.Checks++
		out.Elapsed = s.clock.Now().Sub(base)
		if err != nil {
			return out, fmt.Errorf("token check %d: %w", out.Checks, err)
		}

		switch {
		case verdict.QuotaExceeded:
			return s.finish(out, StateQuotaExceeded)
		case verdict.IsValid:
			return s.finish(out, StateValid)
		}

		if isFirst {
			s.transition(&out, StateWaiting)
		}

		if out.Elapsed > s.cfg.Timeout {
			return s.finish(out, StateTimeout)
		}

		delay := s.cfg.Interval - out.Elapsed%s.cfg.Interval
		s.logger.Debug("waiting for next check", "delay", delay, "elapsed", out.Elapsed, "checks", out.Checks)

		if err := s.clock.Sleep(ctx, delay); err != nil {
			return out, err
		}

		out.Elapsed = s.clock.Now().Sub(base)
		if out.Elapsed > s.cfg.Timeout {
			return s.finish(out, StateTimeout)
		}
	}
}

func (s *Scheduler) transition(out *Outcome, to State) {
	s.logger.Debug("state transition", "from", out.State, "to", to, "checks", out.Checks, "elapsed", out.Elapsed)
	out.State = to
}

func (s *Scheduler) finish(out Outcome, to State) (Outcome, error) {
	s.transition(&out, to)
	if to == StateValid {
		return out, nil
	}
	return out, &Error{Outcome: out}
}
