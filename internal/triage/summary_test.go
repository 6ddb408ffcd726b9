package triage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthfolio/careroute/pkg/logger"
)

func TestGenerateSummary_WordingTracksReadingCount(t *testing.T) {
	mockHealth := &MockHealthDataStore{}
	mockHealth.On("LatestMetrics", mock.Anything, "user-1").
		Return(map[string]float64{"heart_rate": 72, "spo2": 98}, nil)

	generator := NewLogSummaryGenerator(mockHealth, logger.New("debug"))

	summary, err := generator.GenerateSummary(context.Background(), "user-1", "clinician")
	require.NoError(t, err)
	assert.Contains(t, summary, "clinician")
	assert.Contains(t, summary, "2 recent readings")
}

func TestGenerateSummary_NoReadingsOnFile(t *testing.T) {
	generator := NewLogSummaryGenerator(NewEmptyHealthDataStore(), logger.New("debug"))

	summary, err := generator.GenerateSummary(context.Background(), "user-1", "clinician")
	require.NoError(t, err)
	assert.Contains(t, summary, "no recent readings")
}

func TestGenerateSummary_HonorsCancelledContext(t *testing.T) {
	generator := NewLogSummaryGenerator(NewEmptyHealthDataStore(), logger.New("debug"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := generator.GenerateSummary(ctx, "user-1", "clinician")
	assert.ErrorIs(t, err, context.Canceled)
}
