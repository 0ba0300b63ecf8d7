// Package intelligence implements the task intelligence engine: priority
// scoring with an AI-augmented primary path and a deterministic rule-based
// fallback, behavioral pattern mining, and scheduling conflict detection.
// All analysis runs over a read-only, in-memory snapshot of one user's
// items supplied by the caller.
package intelligence

import (
	"context"

	"github.com/google/uuid"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// AnalysisStore persists prioritized-task analysis records.
// Writes are fire-and-forget from the engine's perspective.
type AnalysisStore interface {
	StoreAnalysis(ctx context.Context, userID uuid.UUID, task *models.PrioritizedTask) error
}

// PatternStore persists detected patterns and their suggestions.
// Patterns are upserted per (user, pattern type); suggestions append.
type PatternStore interface {
	UpsertPattern(ctx context.Context, userID uuid.UUID, patternType models.PatternType, pattern *models.DetectedPattern) error
	StoreSuggestion(ctx context.Context, userID uuid.UUID, suggestion *models.PatternSuggestion) error
}

// ConflictStore persists detected conflicts append-only per user
type ConflictStore interface {
	StoreConflict(ctx context.Context, userID uuid.UUID, conflict *models.DetectedConflict) error
}

// NopStores is a no-op implementation of every storage port, used by the
// offline CLI and in tests
type NopStores struct{}

func (NopStores) StoreAnalysis(ctx context.Context, userID uuid.UUID, task *models.PrioritizedTask) error {
	return nil
}

func (NopStores) UpsertPattern(ctx context.Context, userID uuid.UUID, patternType models.PatternType, pattern *models.DetectedPattern) error {
	return nil
}

func (NopStores) StoreSuggestion(ctx context.Context, userID uuid.UUID, suggestion *models.PatternSuggestion) error {
	return nil
}

func (NopStores) StoreConflict(ctx context.Context, userID uuid.UUID, conflict *models.DetectedConflict) error {
	return nil
}
