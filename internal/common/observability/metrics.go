// internal/common/observability/metrics.go
package observability

import (
	"fmt"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Meters holds the OpenTelemetry instruments used by the pipeline.
type Meters struct {
	Provider       *sdkmetric.MeterProvider
	StageLatency   metric.Float64Histogram
	ScoreProcessed metric.Int64Counter
}

// NewMeters wires an OTel meter provider backed by the default
// Prometheus registry, so instruments surface on the /metrics endpoint.
func NewMeters(serviceName string) (*Meters, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(serviceName)

	stageLatency, err := meter.Float64Histogram(
		"diagnosis_stage_latency_ms",
		metric.WithDescription("Per-stage execution latency in milliseconds"),
	)
	if err != nil {
		return nil, err
	}

	scoreProcessed, err := meter.Int64Counter(
		"diagnosis_scores_processed_total",
		metric.WithDescription("Number of diagnosis submissions scored"),
	)
	if err != nil {
		return nil, err
	}

	return &Meters{
		Provider:       provider,
		StageLatency:   stageLatency,
		ScoreProcessed: scoreProcessed,
	}, nil
}
