package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/guilhermexp/zenith-tasks/internal/models"
)

func TestPatternKey(t *testing.T) {
	t.Parallel()

	itemID := uuid.New()

	tests := []struct {
		name    string
		pattern *models.DetectedPattern
		want    string
	}{
		{
			name: "recurring keyed by normalized title",
			pattern: &models.DetectedPattern{
				Type:      models.PatternTypeRecurring,
				Recurring: &models.RecurringPattern{Title: "  Weekly Review "},
			},
			want: "weekly review",
		},
		{
			name: "batch keyed by item type",
			pattern: &models.DetectedPattern{
				Type:  models.PatternTypeBatch,
				Batch: &models.BatchPattern{ItemType: models.ItemTypeTask},
			},
			want: "task",
		},
		{
			name: "postponement keyed by item id",
			pattern: &models.DetectedPattern{
				Type:         models.PatternTypePostponement,
				Postponement: &models.PostponementPattern{ItemID: itemID},
			},
			want: itemID.String(),
		},
		{
			name: "performance keyed by item type",
			pattern: &models.DetectedPattern{
				Type:        models.PatternTypePerformance,
				Performance: &models.PerformancePattern{ItemType: models.ItemTypeMeeting},
			},
			want: "meeting",
		},
		{
			name:    "empty pattern",
			pattern: &models.DetectedPattern{},
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := patternKey(tt.pattern); got != tt.want {
				t.Errorf("patternKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPatternRepository_UpsertPattern_Integration(t *testing.T) {
	// This test requires a real database connection
	// For integration tests, we'd use testcontainers or an in-memory DB
	t.Skip("Requires database setup - implement with testcontainers or integration test setup")
}
