// Package guard decides when an authentication failure ends the session.
//
// A [Guard] moves through three phases:
//
//	ACTIVE --(401 with expired credential)--> EXPIRING --(side effects done)--> LOGGED_OUT
//
// The ACTIVE to EXPIRING step is a compare-and-swap, so however many
// goroutines observe an expired credential at once, exactly one of them
// clears the credential, flips the authenticated flag, shows the
// session-expired notification and navigates to login. LOGGED_OUT is
// terminal until [Guard.Reset], which a new login calls.
//
// An authentication failure while the stored credential is still valid is
// treated as a revoked permission for that one call: the user gets a warning
// and the session stays up.
package guard

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/i18n"
	"github.com/MrEthical07/goSession/notify"
)

// Message keys used for guard notifications.
const (
	KeySessionExpired = "session.expired"
	KeyNotAuthorized  = "session.not_authorized"
)

// Phase is the session lifecycle state.
type Phase int32

const (
	PhaseActive Phase = iota
	PhaseExpiring
	PhaseLoggedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "ACTIVE"
	case PhaseExpiring:
		return "EXPIRING"
	case PhaseLoggedOut:
		return "LOGGED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Outcome reports what [Guard.Observe] did with a failure.
type Outcome int

const (
	// OutcomeIgnored: the failure is not an authentication failure.
	OutcomeIgnored Outcome = iota
	// OutcomeLoggedOut: this call performed the forced logout.
	OutcomeLoggedOut
	// OutcomeAlreadyLoggedOut: another call performed, or is performing, it.
	OutcomeAlreadyLoggedOut
	// OutcomeRejected: the credential is valid, so the call was rejected
	// without ending the session.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeLoggedOut:
		return "logged_out"
	case OutcomeAlreadyLoggedOut:
		return "already_logged_out"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// TokenStore is the credential view the guard needs.
type TokenStore interface {
	IsValid(ctx context.Context) bool
	Clear(ctx context.Context) error
}

// StateContainer holds the application's authenticated flag.
type StateContainer interface {
	SetAuthenticated(authenticated bool)
	Authenticated() bool
}

// Navigator sends the user to the login screen.
type Navigator interface {
	ToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) ToLogin(ctx context.Context) { f(ctx) }

// Guard owns the session phase. It is safe for concurrent use.
type Guard struct {
	phase atomic.Int32
	// ends counts completed logouts, forced or voluntary.
	ends atomic.Uint64

	tokens     TokenStore
	state      StateContainer
	nav        Navigator
	sink       notify.Sink
	translator i18n.Translator
	clock      clockwork.Clock
	logger     *slog.Logger
	observer   func(ctx context.Context, o Outcome)
}

// Option configures a [Guard].
type Option func(*Guard)

func WithState(s StateContainer) Option {
	return func(g *Guard) { g.state = s }
}

func WithNavigator(n Navigator) Option {
	return func(g *Guard) { g.nav = n }
}

func WithSink(s notify.Sink) Option {
	return func(g *Guard) { g.sink = s }
}

func WithTranslator(t i18n.Translator) Option {
	return func(g *Guard) { g.translator = t }
}

func WithClock(c clockwork.Clock) Option {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver is called with every outcome other than OutcomeIgnored.
func WithObserver(fn func(ctx context.Context, o Outcome)) Option {
	return func(g *Guard) { g.observer = fn }
}

// New returns an ACTIVE guard over tokens. Without [WithSink] notifications
// go to [notify.Default] at the time they are sent.
func New(tokens TokenStore, opts ...Option) *Guard {
	g := &Guard{
		tokens: tokens,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.translator == nil {
		g.translator = i18n.MustNew()
	}
	return g
}

// Phase returns the current phase.
func (g *Guard) Phase() Phase {
	return Phase(g.phase.Load())
}

// Ends returns how many times the session has ended. Callers compare two
// readings to learn whether a logout happened in between, which a phase
// reading alone cannot tell once the session was already LOGGED_OUT.
func (g *Guard) Ends() uint64 {
	return g.ends.Load()
}

// Observe acts on a classified failure.
func (g *Guard) Observe(ctx context.Context, env *apierror.Envelope) Outcome {
	if env == nil || env.Kind != apierror.KindAuthentication {
		return OutcomeIgnored
	}
	if g.Phase() != PhaseActive {
		g.report(ctx, OutcomeAlreadyLoggedOut)
		return OutcomeAlreadyLoggedOut
	}

	if g.tokens != nil && g.tokens.IsValid(ctx) {
		g.logger.WarnContext(ctx, "authentication rejected with valid credential",
			"status", env.StatusCode)
		g.show(ctx, apierror.SeverityMedium, KeyNotAuthorized)
		g.report(ctx, OutcomeRejected)
		return OutcomeRejected
	}

	if !g.logout(ctx, "credential expired") {
		g.report(ctx, OutcomeAlreadyLoggedOut)
		return OutcomeAlreadyLoggedOut
	}
	g.report(ctx, OutcomeLoggedOut)
	return OutcomeLoggedOut
}

// ForceLogout ends the session regardless of the credential. It reports
// whether this call performed the logout.
func (g *Guard) ForceLogout(ctx context.Context) bool {
	if !g.logout(ctx, "forced") {
		return false
	}
	g.report(ctx, OutcomeLoggedOut)
	return true
}

// SignOut ends the session on the user's request: the credential is cleared
// and the guard is LOGGED_OUT, but nobody is notified or navigated.
func (g *Guard) SignOut(ctx context.Context) error {
	g.phase.Store(int32(PhaseLoggedOut))
	g.ends.Add(1)
	if g.state != nil {
		g.state.SetAuthenticated(false)
	}
	if g.tokens == nil {
		return nil
	}
	return g.tokens.Clear(ctx)
}

// Reset returns the guard to ACTIVE after a new login.
func (g *Guard) Reset() {
	g.phase.Store(int32(PhaseActive))
}

func (g *Guard) logout(ctx context.Context, reason string) bool {
	if !g.phase.CompareAndSwap(int32(PhaseActive), int32(PhaseExpiring)) {
		return false
	}
	g.ends.Add(1)
	g.logger.InfoContext(ctx, "session ended", "reason", reason)

	if g.tokens != nil {
		if err := g.tokens.Clear(ctx); err != nil {
			g.logger.ErrorContext(ctx, "failed to clear credential", "error", err)
		}
	}
	if g.state != nil {
		g.state.SetAuthenticated(false)
	}
	g.show(ctx, apierror.SeverityHigh, KeySessionExpired)
	if g.nav != nil {
		g.nav.ToLogin(ctx)
	}

	// A Reset during the side effects wins; the guard then stays ACTIVE.
	g.phase.CompareAndSwap(int32(PhaseExpiring), int32(PhaseLoggedOut))
	return true
}

func (g *Guard) show(ctx context.Context, severity apierror.Severity, key string) {
	sink := g.sink
	if sink == nil {
		sink = notify.Default()
	}
	n := notify.New(severity, key, g.translator.Translate(key, i18n.LanguageFrom(ctx)))
	n.CreatedAt = g.clock.Now()
	sink.Notify(ctx, n)
}

func (g *Guard) report(ctx context.Context, o Outcome) {
	if g.observer != nil {
		g.observer(ctx, o)
	}
}
