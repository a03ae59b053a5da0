package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SweepMetrics holds the compliance sweep counters, following OTEL
// semantic conventions.
type SweepMetrics struct {
	entitiesScanned metric.Int64Counter
	violations      metric.Int64Counter
	remediations    metric.Int64Counter
	sweepDuration   metric.Float64Histogram
}

// NewSweepMetrics registers the sweep instruments on the global meter.
func NewSweepMetrics() (*SweepMetrics, error) {
	meter := otel.Meter("tagwarden.sweep")

	entitiesScanned, err := meter.Int64Counter(
		"tagwarden.entities.scanned",
		metric.WithDescription("Number of snapshots scanned"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	violations, err := meter.Int64Counter(
		"tagwarden.violations",
		metric.WithDescription("Number of tag rule violations found"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, err
	}

	remediations, err := meter.Int64Counter(
		"tagwarden.remediations",
		metric.WithDescription("Number of remediation outcomes by status"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	sweepDuration, err := meter.Float64Histogram(
		"tagwarden.sweep.duration",
		metric.WithDescription("Duration of full compliance sweeps"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SweepMetrics{
		entitiesScanned: entitiesScanned,
		violations:      violations,
		remediations:    remediations,
		sweepDuration:   sweepDuration,
	}, nil
}

// RecordEntitiesScanned records how many snapshots one sweep saw.
func (m *SweepMetrics) RecordEntitiesScanned(ctx context.Context, count int64, region string) {
	m.entitiesScanned.Add(ctx, count,
		metric.WithAttributes(attribute.String("cloud.region", region)),
	)
}

// RecordViolations records violations found for one tag key.
func (m *SweepMetrics) RecordViolations(ctx context.Context, key string, count int64) {
	m.violations.Add(ctx, count,
		metric.WithAttributes(attribute.String("tag.key", key)),
	)
}

// RecordRemediation records one remediation outcome.
func (m *SweepMetrics) RecordRemediation(ctx context.Context, status string) {
	m.remediations.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordSweepDuration records the wall time of one sweep.
func (m *SweepMetrics) RecordSweepDuration(ctx context.Context, seconds float64, status string) {
	m.sweepDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
