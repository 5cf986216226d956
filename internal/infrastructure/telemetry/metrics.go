package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/taxgeo/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider wraps the OTEL meter provider with lifecycle handling
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	log      *zap.Logger
}

// NewMeterProvider builds a meter provider from configuration. When
// telemetry is disabled the global no-op provider stays in place.
func NewMeterProvider(ctx context.Context, cfg *config.TelemetryConfig, log *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{log: log}
	if !cfg.Enabled {
		log.Info("telemetry disabled, using no-op meter provider")
		return mp, nil
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := serviceResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(60*time.Second)),
		),
	)
	otel.SetMeterProvider(mp.provider)

	log.Info("telemetry meter provider initialized",
		zap.String("endpoint", cfg.CollectorEndpoint))
	return mp, nil
}

// Meter returns a named meter
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Shutdown flushes pending metrics
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Common attribute keys shared across instruments.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrCacheNamespace = attribute.Key("cache.namespace")
	AttrRegion         = attribute.Key("analytics.region")
	AttrSource         = attribute.Key("analytics.source")
)

// APIMetrics holds the instruments the HTTP layer records into.
type APIMetrics struct {
	RequestCount    metric.Int64Counter
	RequestDuration metric.Float64Histogram
	CacheHits       metric.Int64Counter
	CacheMisses     metric.Int64Counter
	AnalyticsCount  metric.Int64Counter
	QueryDuration   metric.Float64Histogram
}

// NewAPIMetrics registers the service instruments on a meter. With a
// no-op meter every instrument is a no-op, so callers record
// unconditionally.
func NewAPIMetrics(meter metric.Meter) (*APIMetrics, error) {
	m := &APIMetrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Handled HTTP requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	if m.RequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10)); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	if m.CacheHits, err = meter.Int64Counter("cache.response.hits",
		metric.WithDescription("Response cache hits"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	if m.CacheMisses, err = meter.Int64Counter("cache.response.misses",
		metric.WithDescription("Response cache misses"),
		metric.WithUnit("{lookup}")); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	if m.AnalyticsCount, err = meter.Int64Counter("analytics.query.count",
		metric.WithDescription("Analytical queries served"),
		metric.WithUnit("{query}")); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	if m.QueryDuration, err = meter.Float64Histogram("analytics.query.duration",
		metric.WithDescription("Analytical query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60)); err != nil {
		return nil, fmt.Errorf("failed to create instrument: %w", err)
	}
	return m, nil
}

// RecordRequest records one handled HTTP request.
func (m *APIMetrics) RecordRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
		AttrHTTPStatusCode.Int(status),
	)
	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCacheLookup records a response cache hit or miss.
func (m *APIMetrics) RecordCacheLookup(ctx context.Context, namespace string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrCacheNamespace.String(namespace))
	if hit {
		m.CacheHits.Add(ctx, 1, attrs)
	} else {
		m.CacheMisses.Add(ctx, 1, attrs)
	}
}

// RecordAnalyticsQuery records one analytical repository call.
func (m *APIMetrics) RecordAnalyticsQuery(ctx context.Context, region, source string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		AttrRegion.String(region),
		AttrSource.String(source),
	)
	m.AnalyticsCount.Add(ctx, 1, attrs)
	m.QueryDuration.Record(ctx, d.Seconds(), attrs)
}
