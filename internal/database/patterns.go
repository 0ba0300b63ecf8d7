package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// PatternRepository persists detected patterns and their suggestions
type PatternRepository struct {
	db *DB
}

// NewPatternRepository creates a new pattern repository
func NewPatternRepository(db *DB) *PatternRepository {
	return &PatternRepository{db: db}
}

// UpsertPattern stores one detected pattern, replacing any previous
// detection of the same pattern for the same subject
func (r *PatternRepository) UpsertPattern(ctx context.Context, userID uuid.UUID, patternType models.PatternType, pattern *models.DetectedPattern) error {
	query := `
		INSERT INTO user_patterns (user_id, pattern_type, pattern_key, payload, confidence, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, pattern_type, pattern_key)
		DO UPDATE SET payload = EXCLUDED.payload, confidence = EXCLUDED.confidence, updated_at = EXCLUDED.updated_at
	`

	payload, err := json.Marshal(pattern)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		userID,
		patternType,
		patternKey(pattern),
		payload,
		pattern.Confidence,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	return nil
}

// StoreSuggestion appends one pattern suggestion
func (r *PatternRepository) StoreSuggestion(ctx context.Context, userID uuid.UUID, suggestion *models.PatternSuggestion) error {
	query := `
		INSERT INTO pattern_suggestions (id, user_id, title, description, impact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		suggestion.ID,
		userID,
		suggestion.Title,
		suggestion.Description,
		suggestion.Impact,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to store suggestion: %w", err)
	}

	return nil
}

// patternKey identifies the subject a pattern is about, so repeated
// detections update the same row instead of piling up
func patternKey(pattern *models.DetectedPattern) string {
	switch {
	case pattern.Recurring != nil:
		return models.NormalizeTitle(pattern.Recurring.Title)
	case pattern.Batch != nil:
		return string(pattern.Batch.ItemType)
	case pattern.Postponement != nil:
		return pattern.Postponement.ItemID.String()
	case pattern.Performance != nil:
		return string(pattern.Performance.ItemType)
	}
	return ""
}
