package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// AnalysisRepository persists per-item prioritization results
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// StoreAnalysis inserts one prioritized task record
func (r *AnalysisRepository) StoreAnalysis(ctx context.Context, userID uuid.UUID, task *models.PrioritizedTask) error {
	query := `
		INSERT INTO task_analyses (id, user_id, item_id, score, rank, reasoning, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	reasoningJSON, err := json.Marshal(task.Reasoning)
	if err != nil {
		return fmt.Errorf("failed to marshal reasoning: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		uuid.New(),
		userID,
		task.ItemID,
		task.Score,
		task.Rank,
		reasoningJSON,
		task.Confidence,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}

	return nil
}

// GetLatestByUserID returns the most recent analysis rows for a user,
// one per item, ordered by rank
func (r *AnalysisRepository) GetLatestByUserID(ctx context.Context, userID uuid.UUID) ([]models.PrioritizedTask, error) {
	query := `
		SELECT DISTINCT ON (item_id) item_id, score, rank, reasoning, confidence
		FROM task_analyses
		WHERE user_id = $1
		ORDER BY item_id, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var tasks []models.PrioritizedTask
	for rows.Next() {
		var task models.PrioritizedTask
		var reasoningJSON []byte
		if err := rows.Scan(&task.ItemID, &task.Score, &task.Rank, &reasoningJSON, &task.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if len(reasoningJSON) > 0 {
			if err := json.Unmarshal(reasoningJSON, &task.Reasoning); err != nil {
				return nil, fmt.Errorf("failed to unmarshal reasoning: %w", err)
			}
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Rank < tasks[j].Rank })
	return tasks, nil
}
