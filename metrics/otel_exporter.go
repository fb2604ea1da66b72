package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/marcelsud/webhook-inspector/synthesis"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards.
// It records capture, delete and synthesis events for the services.
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prom.Registry
	collector     Collector

	// OTel meters and instruments
	meter             metric.Meter
	capturedCounter   metric.Int64Counter
	deletedCounter    metric.Int64Counter
	synthesisCounter  metric.Int64Counter
	synthesisDuration metric.Float64Histogram
	synthesisInflight metric.Int64UpDownCounter
	storedGauge       metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prom.NewRegistry()

	// Create Prometheus exporter
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"webhook-inspector",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.capturedCounter, err = oe.meter.Int64Counter(
		"webhook.captured",
		metric.WithDescription("Number of captured webhooks"),
		metric.WithUnit("{webhooks}"),
	)
	if err != nil {
		return fmt.Errorf("creating captured counter: %w", err)
	}

	oe.deletedCounter, err = oe.meter.Int64Counter(
		"webhook.deleted",
		metric.WithDescription("Number of deleted webhooks"),
		metric.WithUnit("{webhooks}"),
	)
	if err != nil {
		return fmt.Errorf("creating deleted counter: %w", err)
	}

	oe.synthesisCounter, err = oe.meter.Int64Counter(
		"synthesis.requests",
		metric.WithDescription("Number of handler synthesis requests by outcome"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating synthesis counter: %w", err)
	}

	oe.synthesisDuration, err = oe.meter.Float64Histogram(
		"synthesis.duration",
		metric.WithDescription("Time spent synthesizing a handler"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating synthesis duration histogram: %w", err)
	}

	oe.synthesisInflight, err = oe.meter.Int64UpDownCounter(
		"synthesis.inflight",
		metric.WithDescription("Synthesis requests waiting on the generative backend"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating synthesis inflight counter: %w", err)
	}

	// Stored webhooks gauge (read from the store on scrape)
	oe.storedGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.stored",
		metric.WithDescription("Number of webhooks currently stored"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeStored),
	)
	if err != nil {
		return fmt.Errorf("creating stored gauge: %w", err)
	}

	return nil
}

// observeStored is a callback that reports the stored webhook count
func (oe *OTelExporter) observeStored(ctx context.Context, observer metric.Int64Observer) error {
	if oe.collector == nil {
		return nil
	}
	snapshot, err := oe.collector.Collect(ctx)
	if err != nil {
		return err
	}
	observer.Observe(snapshot.Stored)
	return nil
}

// WebhookCaptured counts one capture by request method
func (oe *OTelExporter) WebhookCaptured(ctx context.Context, method string) {
	oe.capturedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.request.method", method),
	))
}

// WebhookDeleted counts one deletion
func (oe *OTelExporter) WebhookDeleted(ctx context.Context) {
	oe.deletedCounter.Add(ctx, 1)
}

// SynthesisStarted marks a request as waiting on the backend
func (oe *OTelExporter) SynthesisStarted(ctx context.Context) {
	oe.synthesisInflight.Add(ctx, 1)
}

// SynthesisFinished records the outcome. Throttled requests never started.
func (oe *OTelExporter) SynthesisFinished(ctx context.Context, outcome string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	oe.synthesisCounter.Add(ctx, 1, attrs)
	if outcome == synthesis.OutcomeThrottled {
		return
	}
	oe.synthesisInflight.Add(ctx, -1)
	oe.synthesisDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
