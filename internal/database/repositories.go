package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/guilhermexp/zenith-tasks/internal/models"
	"github.com/guilhermexp/zenith-tasks/internal/services/intelligence"
)

// ItemRepositoryInterface defines the read path for item access.
// This interface enables better testability by allowing mock implementations
type ItemRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error)
}

// Ensure concrete types implement the interfaces, including the analysis
// storage ports consumed by the intelligence components
var (
	_ ItemRepositoryInterface    = (*ItemRepository)(nil)
	_ intelligence.AnalysisStore = (*AnalysisRepository)(nil)
	_ intelligence.PatternStore  = (*PatternRepository)(nil)
	_ intelligence.ConflictStore = (*ConflictRepository)(nil)
)
