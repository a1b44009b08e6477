// Package otel publishes goSession metrics through an OpenTelemetry meter.
//
// Counters are grouped into a few labelled instruments instead of one
// instrument per counter:
//
//	gosession.operations       result=success|failure
//	gosession.failures         kind=NETWORK|TIMEOUT|...|UNKNOWN
//	gosession.retries          event=attempt|recovered|exhausted|aborted
//	gosession.http.requests    result=all|failed
//	gosession.session.events   event=login|logout|forced_logout|logout_suppressed|auth_rejected
//	gosession.notifications    outcome=sent|dropped
//
// The request latency histogram becomes a cumulative gauge with an le
// attribute plus a count gauge. A single callback reads
// [goSession.Client.MetricsSnapshot] on each collection cycle.
//
// The exporter does not own the MeterProvider and never mutates client
// state.
package otel
