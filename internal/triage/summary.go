package triage

import (
	"context"
	"fmt"

	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
)

// LogSummaryGenerator is the default SummaryGenerator: it produces a
// minimal clinician-readable brief from whatever the health data store
// holds. A production deployment points this interface at the narrative
// summary service instead.
type LogSummaryGenerator struct {
	health interfaces.HealthDataStore
	logger *logger.Logger
}

// NewLogSummaryGenerator creates a summary generator backed by the health
// data store
func NewLogSummaryGenerator(health interfaces.HealthDataStore, log *logger.Logger) interfaces.SummaryGenerator {
	return &LogSummaryGenerator{health: health, logger: log}
}

// GenerateSummary returns a formatted pre-visit narrative for the user
func (g *LogSummaryGenerator) GenerateSummary(ctx context.Context, userID, audience string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	metrics, err := g.health.LatestMetrics(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to read latest metrics: %w", err)
	}

	g.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"audience": audience,
		"metrics":  len(metrics),
	}).Debug("Pre-visit summary generated")

	if len(metrics) == 0 {
		return fmt.Sprintf("Pre-visit brief (%s): no recent readings on file for this user.", audience), nil
	}
	return fmt.Sprintf("Pre-visit brief (%s): %d recent readings on file; review trends before the consultation.",
		audience, len(metrics)), nil
}

// EmptyHealthDataStore is the default HealthDataStore: it reports no
// readings. Deployments wire the real store through the same interface.
type EmptyHealthDataStore struct{}

// NewEmptyHealthDataStore creates a health data store with no readings
func NewEmptyHealthDataStore() interfaces.HealthDataStore {
	return &EmptyHealthDataStore{}
}

// LatestMetrics returns the user's most recent readings
func (s *EmptyHealthDataStore) LatestMetrics(ctx context.Context, userID string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return map[string]float64{}, nil
}
