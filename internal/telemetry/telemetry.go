// Package telemetry exposes OpenTelemetry metrics for catalog and
// transfer operations through a Prometheus scrape endpoint.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Telemetry holds the meter provider and the instruments.
type Telemetry struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	clientOperationsTotal   metric.Int64Counter
	clientOperationDuration metric.Float64Histogram
	clientErrors            metric.Int64Counter
	transfersTotal          metric.Int64Counter
	grabsTotal              metric.Int64Counter
}

// New wires the Prometheus exporter into an otel meter provider and
// creates the instruments.
func New(serviceName string) (*Telemetry, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	t := &Telemetry{
		meterProvider: provider,
		meter:         provider.Meter(serviceName),
	}

	if err := t.initInstruments(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Telemetry) initInstruments() error {
	var err error

	if t.clientOperationsTotal, err = t.meter.Int64Counter(
		"catalog_client_operations_total",
		metric.WithDescription("Total catalog client operations"),
	); err != nil {
		return fmt.Errorf("failed to create operations counter: %w", err)
	}

	if t.clientOperationDuration, err = t.meter.Float64Histogram(
		"catalog_client_operation_duration_seconds",
		metric.WithDescription("Catalog client operation duration"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	if t.clientErrors, err = t.meter.Int64Counter(
		"catalog_client_errors_total",
		metric.WithDescription("Total catalog client errors"),
	); err != nil {
		return fmt.Errorf("failed to create errors counter: %w", err)
	}

	if t.transfersTotal, err = t.meter.Int64Counter(
		"transfers_total",
		metric.WithDescription("Total transfer lifecycle events"),
	); err != nil {
		return fmt.Errorf("failed to create transfers counter: %w", err)
	}

	if t.grabsTotal, err = t.meter.Int64Counter(
		"grabs_total",
		metric.WithDescription("Total grabbed torrents"),
	); err != nil {
		return fmt.Errorf("failed to create grabs counter: %w", err)
	}

	return nil
}

// Handler returns the HTTP surface: the Prometheus scrape endpoint and a
// liveness probe.
func (t *Telemetry) Handler() http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

// Shutdown flushes the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.meterProvider.Shutdown(ctx)
}

// InstrumentClientOperation wraps one catalog client call with a
// counter, a duration histogram, and an error counter.
func (t *Telemetry) InstrumentClientOperation(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)

	t.clientOperationsTotal.Add(ctx, 1, attrs)
	t.clientOperationDuration.Record(ctx, duration, attrs)

	if err != nil {
		t.clientErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}

	return err
}

// RecordTransfer counts one transfer lifecycle event.
func (t *Telemetry) RecordTransfer(ctx context.Context, action, status string) {
	t.transfersTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

// RecordGrab counts one grabbed torrent.
func (t *Telemetry) RecordGrab(ctx context.Context, status string) {
	t.grabsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
