package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// ConflictRepository persists detected conflicts
type ConflictRepository struct {
	db *DB
}

// NewConflictRepository creates a new conflict repository
func NewConflictRepository(db *DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// StoreConflict appends one detected conflict
func (r *ConflictRepository) StoreConflict(ctx context.Context, userID uuid.UUID, conflict *models.DetectedConflict) error {
	query := `
		INSERT INTO conflicts (id, user_id, conflict_type, severity, description, conflicting_items, suggestions, resolved, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	itemsJSON, err := json.Marshal(conflict.ConflictingItems)
	if err != nil {
		return fmt.Errorf("failed to marshal conflicting items: %w", err)
	}
	suggestionsJSON, err := json.Marshal(conflict.Suggestions)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		uuid.New(),
		userID,
		conflict.Type,
		conflict.Severity,
		conflict.Description,
		itemsJSON,
		suggestionsJSON,
		conflict.Resolved,
		conflict.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store conflict: %w", err)
	}

	return nil
}

// MarkResolved flags a stored conflict as resolved
func (r *ConflictRepository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE conflicts SET resolved = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("conflict not found")
	}

	return nil
}
