package utils

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "yatube"

// Tracks performance metrics across the system
type MetricsCollector struct {
	requestCount     metric.Int64Counter
	errorCount       metric.Int64Counter
	operationLatency metric.Float64Histogram
	cacheLookups     metric.Int64Counter

	systemStartTime time.Time
}

// NewMetricsCollector builds the instruments from the global meter provider. With no provider
// installed the instruments are no-ops.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithMeter(otel.Meter(meterName))
}

func NewMetricsCollectorWithMeter(meter metric.Meter) *MetricsCollector {
	requestCount, _ := meter.Int64Counter("yatube.http.requests",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	errorCount, _ := meter.Int64Counter("yatube.http.errors",
		metric.WithDescription("Total number of HTTP requests answered with a 5xx status"),
		metric.WithUnit("{request}"),
	)
	operationLatency, _ := meter.Float64Histogram("yatube.operation.duration",
		metric.WithDescription("Engine operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	cacheLookups, _ := meter.Int64Counter("yatube.cache.lookups",
		metric.WithDescription("Page cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)

	return &MetricsCollector{
		requestCount:     requestCount,
		errorCount:       errorCount,
		operationLatency: operationLatency,
		cacheLookups:     cacheLookups,
		systemStartTime:  time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests(ctx context.Context, method string, status int) {
	mc.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", status),
	))
}

func (mc *MetricsCollector) IncrementErrors(ctx context.Context, method string) {
	mc.errorCount.Add(ctx, 1, metric.WithAttributes(attribute.String("http.method", method)))
}

func (mc *MetricsCollector) AddOperationLatency(ctx context.Context, operationName string, duration time.Duration) {
	mc.operationLatency.Record(ctx, float64(duration.Microseconds())/1000,
		metric.WithAttributes(attribute.String("operation", operationName)))
}

func (mc *MetricsCollector) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	mc.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// Uptime reports how long the collector has existed.
func (mc *MetricsCollector) Uptime() time.Duration {
	return time.Since(mc.systemStartTime)
}
