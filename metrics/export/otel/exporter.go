package otel

import (
	"context"
	"errors"
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/apierror"
	"github.com/MrEthical07/goSession/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Instrument names. Each is one instrument whose series are told apart by
// the attribute noted next to it.
const (
	OperationsName    = "gosession.operations"     // result
	FailuresName      = "gosession.failures"       // kind
	RetriesName       = "gosession.retries"        // event
	HTTPRequestsName  = "gosession.http.requests"  // result
	SessionEventsName = "gosession.session.events" // event
	NotificationsName = "gosession.notifications"  // outcome
	LatencyBucketName = "gosession.request.latency.bucket"
	LatencyCountName  = "gosession.request.latency.count"
)

type metricsSource interface {
	MetricsSnapshot() goSession.MetricsSnapshot
	NotificationsDropped() uint64
}

// series is one attribute value of a labelled counter, read from a snapshot
// counter.
type series struct {
	id   goSession.MetricID
	attr metric.MeasurementOption
}

type labelledCounter struct {
	name   string
	help   string
	series []series
	ins    metric.Int64ObservableCounter
}

func label(key, value string) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(attribute.String(key, value)))
}

func labelledCounters() []*labelledCounter {
	failures := &labelledCounter{name: FailuresName, help: "Failed operations by failure kind."}
	for _, k := range apierror.Kinds() {
		failures.series = append(failures.series, series{id: goSession.FailureMetric(k), attr: label("kind", k.String())})
	}

	return []*labelledCounter{
		{
			name: OperationsName,
			help: "Operations run through the client, by result.",
			series: []series{
				{goSession.MetricOperationSuccess, label("result", "success")},
				{goSession.MetricOperationFailure, label("result", "failure")},
			},
		},
		failures,
		{
			name: RetriesName,
			help: "Retry engine events.",
			series: []series{
				{goSession.MetricRetryAttempt, label("event", "attempt")},
				{goSession.MetricRetryRecovered, label("event", "recovered")},
				{goSession.MetricRetryExhausted, label("event", "exhausted")},
				{goSession.MetricRetryAborted, label("event", "aborted")},
			},
		},
		{
			name: HTTPRequestsName,
			help: "HTTP round trips through the pipeline. failed is a subset of all.",
			series: []series{
				{goSession.MetricHTTPRequest, label("result", "all")},
				{goSession.MetricHTTPFailure, label("result", "failed")},
			},
		},
		{
			name: SessionEventsName,
			help: "Session lifecycle events.",
			series: []series{
				{goSession.MetricLogin, label("event", "login")},
				{goSession.MetricLogout, label("event", "logout")},
				{goSession.MetricForcedLogout, label("event", "forced_logout")},
				{goSession.MetricLogoutSuppressed, label("event", "logout_suppressed")},
				{goSession.MetricAuthRejected, label("event", "auth_rejected")},
			},
		},
	}
}

// OTelExporter publishes a client's metrics as labelled observable
// instruments, read from one snapshot per collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters      []*labelledCounter
	notifications metric.Int64ObservableCounter
	latency       metric.Int64ObservableGauge
	latencyCount  metric.Int64ObservableGauge
	bucketAttrs   []metric.MeasurementOption

	sent, dropped metric.MeasurementOption
}

// NewOTelExporter registers instruments on meter that read from client at
// every collection. Call Close to unregister.
func NewOTelExporter(meter metric.Meter, client *goSession.Client) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, client)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: labelledCounters(),
		sent:     label("outcome", "sent"),
		dropped:  label("outcome", "dropped"),
	}
	var observables []metric.Observable

	for _, c := range e.counters {
		ins, err := meter.Int64ObservableCounter(c.name, metric.WithDescription(c.help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", c.name, err)
		}
		c.ins = ins
		observables = append(observables, ins)
	}

	var err error
	e.notifications, err = meter.Int64ObservableCounter(NotificationsName,
		metric.WithDescription("User-facing notifications, sent or dropped by a full buffer."))
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", NotificationsName, err)
	}
	e.latency, err = meter.Int64ObservableGauge(LatencyBucketName,
		metric.WithDescription("Cumulative HTTP round trips at or below the le bound, in seconds."))
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", LatencyBucketName, err)
	}
	e.latencyCount, err = meter.Int64ObservableGauge(LatencyCountName,
		metric.WithDescription("HTTP round trips recorded in the latency histogram."))
	if err != nil {
		return nil, fmt.Errorf("create gauge %s: %w", LatencyCountName, err)
	}
	observables = append(observables, e.notifications, e.latency, e.latencyCount)

	for _, b := range internaldefs.HistogramUpperBounds {
		e.bucketAttrs = append(e.bucketAttrs, label("le", fmt.Sprint(b)))
	}
	e.bucketAttrs = append(e.bucketAttrs, label("le", "+Inf"))

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		for _, s := range c.series {
			o.ObserveInt64(c.ins, int64(snap.Counters[s.id]), s.attr)
		}
	}
	o.ObserveInt64(e.notifications, int64(snap.Counters[goSession.MetricNotificationSent]), e.sent)
	o.ObserveInt64(e.notifications, int64(e.source.NotificationsDropped()), e.dropped)

	raw, ok := snap.Histograms[goSession.MetricRequestLatency]
	if !ok {
		return nil
	}
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	for i, attr := range e.bucketAttrs {
		o.ObserveInt64(e.latency, int64(cumulative[i]), attr)
	}
	o.ObserveInt64(e.latencyCount, int64(cumulative[len(cumulative)-1]))
	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
