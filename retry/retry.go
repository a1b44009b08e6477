package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	goretry "github.com/sethvargo/go-retry"

	"github.com/MrEthical07/goSession/apierror"
)

// ErrAborted is returned, joined with the last envelope, when a pending
// re-attempt is dropped because the session ended while waiting.
var ErrAborted = errors.New("retry: aborted after session ended")

// Op is a retryable unit of work.
type Op func(ctx context.Context) error

// Classifier maps failures to envelopes.
type Classifier interface {
	Classify(ctx context.Context, err error) *apierror.Envelope
}

// Config bounds an engine.
type Config struct {
	// MaxAttempts counts the first call.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number to get the wait before
	// the next attempt.
	BaseDelay time.Duration
}

// DefaultConfig returns three attempts waiting 1s then 2s.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Second}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("retry: BaseDelay must be >= 0, got %s", c.BaseDelay)
	}
	return nil
}

// Session tracks one call to [Engine.Do].
type Session struct {
	EpisodeID   string
	Attempt     int
	MaxAttempts int
	BaseDelay   time.Duration
}

// Event identifies a notable point in a session.
type Event int

const (
	// EventRetry fires before waiting for another attempt.
	EventRetry Event = iota
	// EventTerminal fires when a non-retryable failure ends the session.
	EventTerminal
	// EventExhausted fires when the last allowed attempt failed.
	EventExhausted
	// EventAborted fires when a re-attempt was dropped by the abort gate.
	EventAborted
	// EventRecovered fires when an attempt after the first succeeds.
	EventRecovered
)

func (e Event) String() string {
	switch e {
	case EventRetry:
		return "retry"
	case EventTerminal:
		return "terminal"
	case EventExhausted:
		return "exhausted"
	case EventAborted:
		return "aborted"
	case EventRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Observer receives session events. env is nil for EventRecovered.
type Observer func(ctx context.Context, ev Event, s Session, env *apierror.Envelope)

// Engine runs operations under a retry policy. It is safe for concurrent use.
type Engine struct {
	cfg        Config
	classifier Classifier
	clock      clockwork.Clock
	logger     *slog.Logger
	abort      func(context.Context) bool
	observer   Observer
}

// Option configures an [Engine].
type Option func(*Engine)

// WithClock sets the clock backoff waits run on.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the attempt logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAbort sets the gate consulted after each wait. When it returns true
// the re-attempt is not issued.
func WithAbort(abort func(context.Context) bool) Option {
	return func(e *Engine) { e.abort = abort }
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.observer = obs }
}

// New returns an engine classifying failures with classifier.
func New(cfg Config, classifier Classifier, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, errors.New("retry: classifier is required")
	}

	e := &Engine{
		cfg:        cfg,
		classifier: classifier,
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's policy.
func (e *Engine) Config() Config {
	return e.cfg
}

// Do runs op until it succeeds, fails with a non-retryable kind, or runs out
// of attempts. Failures are returned as *apierror.Envelope carrying fields
// in its context.
func (e *Engine) Do(ctx context.Context, op Op, fields map[string]any) error {
	s := Session{
		EpisodeID:   uuid.NewString(),
		MaxAttempts: e.cfg.MaxAttempts,
		BaseDelay:   e.cfg.BaseDelay,
	}
	ctx = WithEpisode(ctx, s.EpisodeID)
	schedule := e.schedule()

	for {
		s.Attempt++
		err := op(ctx)
		if err == nil {
			if s.Attempt > 1 {
				e.logger.InfoContext(ctx, "operation recovered", "attempt", s.Attempt)
				e.emit(ctx, EventRecovered, s, nil)
			}
			return nil
		}

		env := e.classifier.Classify(ctx, err).
			WithFields(fields).
			With("attempt", s.Attempt).
			With("episode_id", s.EpisodeID)

		if !env.Retryable {
			e.logger.InfoContext(ctx, "operation failed",
				"attempt", s.Attempt, "kind", env.Kind, "status", env.StatusCode)
			e.emit(ctx, EventTerminal, s, env)
			return env
		}

		delay, stop := schedule.Next()
		if stop || s.Attempt >= s.MaxAttempts {
			e.logger.WarnContext(ctx, "retries exhausted",
				"attempt", s.Attempt, "max_attempts", s.MaxAttempts, "kind", env.Kind)
			e.emit(ctx, EventExhausted, s, env)
			return env
		}

		e.logger.WarnContext(ctx, "operation failed, retrying",
			"attempt", s.Attempt, "kind", env.Kind, "delay", delay)
		e.emit(ctx, EventRetry, s, env)

		if err := e.wait(ctx, delay); err != nil {
			return errors.Join(err, env)
		}
		if e.abort != nil && e.abort(ctx) {
			e.logger.InfoContext(ctx, "retry aborted, session ended", "attempt", s.Attempt)
			e.emit(ctx, EventAborted, s, env)
			return errors.Join(ErrAborted, env)
		}
	}
}

// Run is [Engine.Do] for operations that produce a value.
func Run[T any](ctx context.Context, e *Engine, op func(ctx context.Context) (T, error), fields map[string]any) (T, error) {
	var out T
	err := e.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, fields)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// schedule returns the linear backoff: BaseDelay times the attempt number,
// stopping after MaxAttempts-1 retries.
func (e *Engine) schedule() goretry.Backoff {
	base := e.cfg.BaseDelay
	var n int64
	linear := goretry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * base, false
	})
	return goretry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), linear)
}

func (e *Engine) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := e.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func (e *Engine) emit(ctx context.Context, ev Event, s Session, env *apierror.Envelope) {
	if e.observer != nil {
		e.observer(ctx, ev, s, env)
	}
}
