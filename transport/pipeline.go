package transport

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/guard"
)

// Credentials supplies the current bearer token. An empty token means no
// credential is stored.
type Credentials interface {
	Read(ctx context.Context) (string, error)
}

// Classifier maps failures to envelopes.
type Classifier interface {
	Classify(ctx context.Context, err error) *apierror.Envelope
}

// SessionGuard acts on classified failures.
type SessionGuard interface {
	Observe(ctx context.Context, env *apierror.Envelope) guard.Outcome
}

// Result describes one completed exchange.
type Result struct {
	Method   string
	Host     string
	Status   int
	Duration time.Duration
	Envelope *apierror.Envelope
	Outcome  guard.Outcome
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	base        http.RoundTripper
	creds       Credentials
	classifier  Classifier
	guard       SessionGuard
	clock       clockwork.Clock
	logger      *slog.Logger
	maxBody     int64
	logRequests bool
	onResult    func(ctx context.Context, r Result)
}

// Option configures a [Pipeline].
type Option func(*Pipeline)

// WithBase sets the wrapped transport. Default http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(p *Pipeline) {
		if rt != nil {
			p.base = rt
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithMaxErrorBody caps how much of an error response body is buffered for
// classification.
func WithMaxErrorBody(n int64) Option {
	return func(p *Pipeline) { p.maxBody = n }
}

// WithRequestLogging logs successful exchanges at debug level as well.
// Failures are always logged.
func WithRequestLogging(on bool) Option {
	return func(p *Pipeline) { p.logRequests = on }
}

// WithResultHook is called after every exchange.
func WithResultHook(fn func(ctx context.Context, r Result)) Option {
	return func(p *Pipeline) { p.onResult = fn }
}

// New returns a pipeline. g may be nil, in which case failures are
// classified but never acted on.
func New(creds Credentials, classifier Classifier, g SessionGuard, opts ...Option) *Pipeline {
	p := &Pipeline{
		base:       http.DefaultTransport,
		creds:      creds,
		classifier: classifier,
		guard:      g,
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
		maxBody:    apierror.DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns an http.Client using the pipeline.
func (p *Pipeline) Client() *http.Client {
	return &http.Client{Transport: p}
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	out := req.Clone(ctx)

	if p.creds != nil {
		token, err := p.creds.Read(ctx)
		if err != nil {
			p.safeLog(func() {
				p.logger.WarnContext(ctx, "credential unavailable, sending without it", "error", err)
			})
		} else if token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := p.clock.Now()
	resp, err := p.base.RoundTrip(out)
	res := Result{Method: out.Method, Duration: p.clock.Since(start)}
	if out.URL != nil {
		res.Host = out.URL.Host
	}

	switch {
	case err != nil:
		res.Envelope = p.classify(ctx, err)
	case resp != nil && resp.StatusCode >= http.StatusBadRequest:
		res.Status = resp.StatusCode
		res.Envelope = p.classify(ctx, apierror.FromResponse(resp, p.maxBody))
	case resp != nil:
		res.Status = resp.StatusCode
	}

	if res.Envelope != nil && p.guard != nil {
		res.Outcome = p.guard.Observe(ctx, res.Envelope)
	}

	p.safeLog(func() { p.logResult(ctx, out, res) })
	if p.onResult != nil {
		p.safeLog(func() { p.onResult(ctx, res) })
	}
	return resp, err
}

func (p *Pipeline) classify(ctx context.Context, err error) *apierror.Envelope {
	if p.classifier == nil {
		return nil
	}
	return p.classifier.Classify(ctx, err)
}

func (p *Pipeline) logResult(ctx context.Context, req *http.Request, res Result) {
	url := ""
	if req.URL != nil {
		url = req.URL.Redacted()
	}
	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("url", url),
		slog.Int("status", res.Status),
		slog.Duration("duration", res.Duration),
	}

	if res.Envelope == nil {
		if p.logRequests {
			p.logger.LogAttrs(ctx, slog.LevelDebug, "request completed", attrs...)
		}
		return
	}

	attrs = append(attrs,
		slog.String("kind", res.Envelope.Kind.String()),
		slog.String("severity", res.Envelope.Severity.String()),
	)
	if res.Outcome != guard.OutcomeIgnored {
		attrs = append(attrs, slog.String("guard", res.Outcome.String()))
	}
	p.logger.LogAttrs(ctx, slog.LevelWarn, "request failed", attrs...)
}

// safeLog runs fn and discards any panic, so observability failures never
// replace the exchange's own result.
func (p *Pipeline) safeLog(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	const scheme = "bearer "
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(scheme):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
