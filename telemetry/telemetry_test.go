package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-service")
	require.NotNil(t, logger)
	// Should not panic.
	logger.Info().Str("key", "value").Msg("test message")
}

func TestNewSweepMetrics(t *testing.T) {
	metrics, err := NewSweepMetrics()
	require.NoError(t, err)
	assert.NotNil(t, metrics)

	// Recording against the default (noop) meter provider must be safe.
	ctx := context.Background()
	metrics.RecordEntitiesScanned(ctx, 42, "us-east-1")
	metrics.RecordViolations(ctx, "Environment", 3)
	metrics.RecordRemediation(ctx, "applied")
	metrics.RecordSweepDuration(ctx, 1.5, "success")
}
