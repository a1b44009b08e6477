package goSession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/i18n"
	"github.com/MrEthical07/goSession/notify"
	"github.com/MrEthical07/goSession/retry"
	"github.com/MrEthical07/goSession/storage"
	"github.com/jonboulle/clockwork"
)

// Client is the assembled session layer. Create one with [Builder.Build].
type Client struct {
	config Config
	logger *slog.Logger
	clock  clockwork.Clock

	tokens     *credential.Store
	classifier *apierror.Classifier
	guard      *guard.Guard
	engine     *retry.Engine
	http       *http.Client
	state      guard.StateContainer
	translator i18n.Translator

	// sink is what the client and guard notify; it stamps TTLs, counts and
	// forwards to the dispatcher or the user sink.
	sink       notify.Sink
	dispatcher *notify.Dispatcher
	metrics    *Metrics

	closed atomic.Bool
}

type clientDeps struct {
	config     Config
	kv         storage.KV
	state      guard.StateContainer
	navigator  guard.Navigator
	sink       notify.Sink
	translator i18n.Translator
	logger     *slog.Logger
	clock      clockwork.Clock
	base       http.RoundTripper
}

func newClient(d clientDeps) (*Client, error) {
	cfg := d.config
	c := &Client{
		config:     cfg,
		logger:     d.logger,
		clock:      d.clock,
		state:      d.state,
		translator: d.translator,
		metrics:    NewMetrics(cfg.Metrics),
	}

	c.tokens = credential.NewStore(d.kv, cfg.Token.StorageKey,
		credential.WithClock(d.clock),
		credential.WithLogger(d.logger),
	)
	c.classifier = apierror.NewClassifier(d.translator, d.logger)

	var target notify.Sink = d.sink
	if target == nil {
		// Resolved per notification so notify.SetDefault takes effect
		// after the client is built.
		target = notify.SinkFunc(func(ctx context.Context, n notify.Notification) {
			notify.Default().Notify(ctx, n)
		})
	}
	if cfg.Notify.BufferSize > 0 {
		c.dispatcher = notify.NewDispatcher(target, notify.DispatcherConfig{
			BufferSize: cfg.Notify.BufferSize,
			DropIfFull: cfg.Notify.DropIfFull,
		})
		target = c.dispatcher
	}
	c.sink = notify.SinkFunc(func(ctx context.Context, n notify.Notification) {
		if n.TTL == 0 {
			n.TTL = cfg.Notify.TTL
		}
		c.metrics.Inc(MetricNotificationSent)
		target.Notify(ctx, n)
	})

	c.guard = guard.New(c.tokens,
		guard.WithState(d.state),
		guard.WithNavigator(d.navigator),
		guard.WithSink(c.sink),
		guard.WithTranslator(d.translator),
		guard.WithClock(d.clock),
		guard.WithLogger(d.logger),
		guard.WithObserver(c.onGuardOutcome),
	)

	engine, err := retry.New(cfg.Retry.engineConfig(), c.classifier,
		retry.WithClock(d.clock),
		retry.WithLogger(d.logger),
		retry.WithAbort(c.sessionEndedDuring),
		retry.WithObserver(c.onRetryEvent),
	)
	if err != nil {
		if c.dispatcher != nil {
			c.dispatcher.Close()
		}
		return nil, err
	}
	c.engine = engine

	c.http = newPipeline(c, d.base).Client()
	return c, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	if c == nil {
		return DefaultConfig()
	}
	return cloneConfig(c.config)
}

// HTTPClient returns an http.Client whose requests carry the session
// credential and whose failures are classified and shown to the guard.
func (c *Client) HTTPClient() *http.Client {
	if c == nil {
		return nil
	}
	return c.http
}

// Run executes op with retries. Transient failures (NETWORK, TIMEOUT,
// SERVER) are retried with linear backoff; any other failure returns at
// once. fields are attached to the failure context.
//
// The returned error is nil or wraps an *apierror.Envelope. If the session
// ends after Run started and before a retry is issued, the retry is dropped
// and the error also wraps [ErrSessionEnded].
//
// A Run called from inside another Run's op executes op once and returns its
// error unchanged; the outermost call owns retries and reporting.
func (c *Client) Run(ctx context.Context, op func(ctx context.Context) error, fields map[string]any) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	if retry.EpisodeID(ctx) != "" {
		return op(ctx)
	}
	if name := operationFromContext(ctx); name != "" {
		fields = withField(fields, "operation", name)
	}

	mark := &runMark{ends: c.guard.Ends()}
	ctx = context.WithValue(ctx, runMarkKey{}, mark)

	err := c.engine.Do(ctx, op, fields)
	if err == nil {
		c.metrics.Inc(MetricOperationSuccess)
		return nil
	}

	c.metrics.Inc(MetricOperationFailure)
	var env *apierror.Envelope
	if !errors.As(err, &env) {
		return err
	}
	c.metrics.Inc(FailureMetric(env.Kind))

	if errors.Is(err, retry.ErrAborted) {
		return fmt.Errorf("%w: %w", ErrSessionEnded, err)
	}

	if !mark.observed.Load() {
		c.guard.Observe(ctx, env)
	}
	if ctx.Err() == nil {
		c.report(ctx, env)
	}
	return err
}

// RunValue is [Client.Run] for operations that produce a value.
func RunValue[T any](ctx context.Context, c *Client, op func(ctx context.Context) (T, error), fields map[string]any) (T, error) {
	var out T
	err := c.Run(ctx, func(ctx context.Context) error {
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

// Classify maps err onto the failure taxonomy without retrying or acting on it.
// It never returns nil, even on a nil client.
func (c *Client) Classify(ctx context.Context, err error) *apierror.Envelope {
	if c == nil {
		return apierror.NewClassifier(nil, nil).Classify(ctx, err)
	}
	return c.classifier.Classify(ctx, err)
}

// Login stores token as the session credential and re-arms the guard.
// The token must decode; its expiry is not checked.
func (c *Client) Login(ctx context.Context, token string) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	if token == "" {
		return ErrEmptyCredential
	}
	cred, err := credential.Decode(token)
	if err != nil {
		return err
	}
	if err := c.tokens.Store(ctx, token); err != nil {
		return err
	}
	c.guard.Reset()
	c.state.SetAuthenticated(true)
	c.metrics.Inc(MetricLogin)
	c.logger.InfoContext(ctx, "session started", "subject", cred.Subject, "expires_at", cred.ExpiresAt)
	return nil
}

// Restore picks up a credential persisted by an earlier process. It marks
// the session authenticated and ACTIVE when the stored credential is valid.
func (c *Client) Restore(ctx context.Context) bool {
	if c == nil || c.closed.Load() || !c.tokens.IsValid(ctx) {
		return false
	}
	c.guard.Reset()
	c.state.SetAuthenticated(true)
	return true
}

// Logout ends the session on the user's request, without a notification.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClientNotReady
	}
	c.metrics.Inc(MetricLogout)
	return c.guard.SignOut(ctx)
}

// ForceLogout ends the session as if the credential had expired. It reports
// whether this call ended it.
func (c *Client) ForceLogout(ctx context.Context) bool {
	if c == nil {
		return false
	}
	return c.guard.ForceLogout(ctx)
}

// IsSessionValid reports whether a stored credential exists and has not expired.
func (c *Client) IsSessionValid(ctx context.Context) bool {
	return c != nil && c.tokens.IsValid(ctx)
}

// MinutesUntilExpiry returns whole minutes left on the credential, 0 when
// there is none.
func (c *Client) MinutesUntilExpiry(ctx context.Context) int {
	if c == nil {
		return 0
	}
	return c.tokens.MinutesUntilExpiry(ctx)
}

// Phase returns the guard's phase. A nil client has no session and reports
// LOGGED_OUT.
func (c *Client) Phase() guard.Phase {
	if c == nil {
		return guard.PhaseLoggedOut
	}
	return c.guard.Phase()
}

// Status reads the session state in one call.
func (c *Client) Status(ctx context.Context) Status {
	if c == nil {
		return Status{Phase: guard.PhaseLoggedOut}
	}
	s := Status{
		Phase:         c.guard.Phase(),
		Authenticated: c.state.Authenticated(),
	}
	cred, err := c.tokens.Current(ctx)
	if err != nil || cred == nil {
		return s
	}
	now := c.clock.Now()
	s.Subject = cred.Subject
	s.ExpiresAt = cred.ExpiresAt
	s.Valid = cred.ValidAt(now)
	s.MinutesUntilExpiry = cred.MinutesUntil(now)
	return s
}

// Notify shows a message through the client's sink. Severity, key and TTL
// follow [notify.New] and [NotifyConfig].
func (c *Client) Notify(ctx context.Context, severity apierror.Severity, key string) {
	if c == nil {
		return
	}
	n := notify.New(severity, key, c.translator.Translate(key, i18n.LanguageFrom(ctx)))
	n.CreatedAt = c.clock.Now()
	c.sink.Notify(ctx, n)
}

func (c *Client) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.Metrics().Snapshot()
}

// NotificationsDropped counts notifications discarded by a full buffer.
func (c *Client) NotificationsDropped() uint64 {
	if c == nil || c.dispatcher == nil {
		return 0
	}
	return c.dispatcher.Dropped()
}

// Close flushes pending notifications. Run and Login fail afterwards.
func (c *Client) Close() {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.dispatcher != nil {
		c.dispatcher.Close()
	}
}

// report shows one notification for a failed operation. AUTHENTICATION is
// left to the guard.
func (c *Client) report(ctx context.Context, env *apierror.Envelope) {
	if !c.config.Notify.ReportFailures || env.Kind == apierror.KindAuthentication {
		return
	}
	n := notify.New(env.Severity, env.Kind.MessageKey(), env.Message)
	n.CreatedAt = c.clock.Now()
	c.sink.Notify(ctx, n)
}

// sessionEndedDuring reports whether a logout happened since the Run call
// in ctx started. An already LOGGED_OUT session does not stop a new call.
func (c *Client) sessionEndedDuring(ctx context.Context) bool {
	mark, ok := markFrom(ctx)
	return ok && c.guard.Ends() != mark.ends
}

func (c *Client) onRetryEvent(_ context.Context, ev retry.Event, _ retry.Session, _ *apierror.Envelope) {
	switch ev {
	case retry.EventRetry:
		c.metrics.Inc(MetricRetryAttempt)
	case retry.EventRecovered:
		c.metrics.Inc(MetricRetryRecovered)
	case retry.EventExhausted:
		c.metrics.Inc(MetricRetryExhausted)
	case retry.EventAborted:
		c.metrics.Inc(MetricRetryAborted)
	}
}

func (c *Client) onGuardOutcome(_ context.Context, o guard.Outcome) {
	switch o {
	case guard.OutcomeLoggedOut:
		c.metrics.Inc(MetricForcedLogout)
	case guard.OutcomeAlreadyLoggedOut:
		c.metrics.Inc(MetricLogoutSuppressed)
	case guard.OutcomeRejected:
		c.metrics.Inc(MetricAuthRejected)
	}
}

func withField(fields map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for key, val := range fields {
		out[key] = val
	}
	out[k] = v
	return out
}
