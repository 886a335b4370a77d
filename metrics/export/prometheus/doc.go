// Package prometheus renders portalgate metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] wraps an engine and exposes an [http.Handler]. Counter
// names are prefixed portalgate_ and end in _total; the check latency
// histogram is portalgate_check_latency_seconds; portalgate_sessions_live is
// the store occupancy gauge.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
