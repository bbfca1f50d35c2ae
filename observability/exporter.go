package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsExporter is a meter provider bound to an exporter.
// It is set as the otel global meter provider as well.
type MetricsExporter struct {
	mp *sdkmetric.MeterProvider
}

// MeterProvider falls back to the otel global one if there is no exporter.
func (e *MetricsExporter) MeterProvider() metric.MeterProvider {
	if e == nil || e.mp == nil {
		return otel.GetMeterProvider()
	}
	return e.mp
}

// Shutdown flushes the pending metrics and stops the provider.
func (e *MetricsExporter) Shutdown(ctx context.Context) error {
	if e == nil || e.mp == nil {
		return nil
	}
	return e.mp.Shutdown(ctx)
}

func newMetricsExporter(reader sdkmetric.Reader) *MetricsExporter {
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	return &MetricsExporter{mp: mp}
}

// NewConsoleMetricsExporter serves for test/dev environment.
func NewConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (*MetricsExporter, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	return newMetricsExporter(sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(interval),
		sdkmetric.WithTimeout(timeout),
	)), nil
}

// NewPrometheusMetricsExporter serves for the product environment,
// the metrics are fetched by HTTP from the registerer.
func NewPrometheusMetricsExporter(reg promclient.Registerer) (*MetricsExporter, error) {
	opts := make([]otelprom.Option, 0, 1)
	if reg != nil {
		opts = append(opts, otelprom.WithRegisterer(reg))
	}
	exporter, err := otelprom.New(opts...)
	if err != nil {
		return nil, err
	}
	return newMetricsExporter(exporter), nil
}
