// Package otel publishes deliveryAuth engine metrics through an OpenTelemetry
// meter.
//
// [New] registers one Int64ObservableCounter per engine counter and one
// Int64ObservableGauge per histogram bucket. A single callback reads
// MetricsSnapshot on each collection cycle. The caller owns the
// MeterProvider.
package otel
