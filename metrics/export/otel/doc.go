// Package otel binds portalgate counters to OpenTelemetry observable
// instruments.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter,
// an Int64ObservableGauge per histogram bucket, and gauges for store
// occupancy. One callback reads a snapshot per collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
