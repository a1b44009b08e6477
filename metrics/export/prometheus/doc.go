// Package prometheus exposes goSession metrics as a Prometheus collector.
//
// [NewPrometheusExporter] wraps a [goSession.Client]. Register the exporter
// with your own registry, or mount [PrometheusExporter.Handler], which serves
// a private registry holding only goSession series.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate client state.
package prometheus
