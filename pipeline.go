package goSession

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/guard"
	"github.com/MrEthical07/goSession/transport"
)

// runMark travels in the context of one Run call. observed records that the
// pipeline already showed a failure to the guard, so Run does not show it
// twice. ends is the guard's logout count when the call started.
type runMark struct {
	observed atomic.Bool
	ends     uint64
}

type runMarkKey struct{}

func markFrom(ctx context.Context) (*runMark, bool) {
	mark, ok := ctx.Value(runMarkKey{}).(*runMark)
	return mark, ok
}

func newPipeline(c *Client, base http.RoundTripper) *transport.Pipeline {
	opts := []transport.Option{
		transport.WithLogger(c.logger),
		transport.WithClock(c.clock),
		transport.WithMaxErrorBody(c.config.Transport.MaxErrorBodyBytes),
		transport.WithRequestLogging(c.config.Transport.LogRequests),
		transport.WithResultHook(c.onResult),
	}
	if base != nil {
		opts = append(opts, transport.WithBase(base))
	}
	return transport.New(c.tokens, c.classifier, c.guard, opts...)
}

func (c *Client) onResult(ctx context.Context, r transport.Result) {
	c.metrics.Inc(MetricHTTPRequest)
	c.metrics.Observe(MetricRequestLatency, r.Duration)
	if r.Envelope == nil {
		return
	}
	c.metrics.Inc(MetricHTTPFailure)

	if r.Envelope.Kind == apierror.KindAuthentication && r.Outcome != guard.OutcomeIgnored {
		if mark, ok := markFrom(ctx); ok {
			mark.observed.Store(true)
		}
	}
}
