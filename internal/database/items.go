package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// ItemRepository handles item database operations
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = "id, user_id, title, summary, item_type, completed, due_date, start_time, end_time, subtasks, created_at, updated_at"

// GetByID retrieves an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// GetByUserID retrieves all items for a user, optionally filtered by type
// and completion state
func (r *ItemRepository) GetByUserID(ctx context.Context, userID uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = $1`
	args := []any{userID}
	argIndex := 2

	if itemType != nil {
		query += fmt.Sprintf(" AND item_type = $%d", argIndex)
		args = append(args, string(*itemType))
		argIndex++
	}

	if completed != nil {
		query += fmt.Sprintf(" AND completed = $%d", argIndex)
		args = append(args, *completed)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// GetActiveUserIDs returns the users who currently have incomplete items
func (r *ItemRepository) GetActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT user_id FROM items WHERE completed = false`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active users: %w", err)
	}
	defer rows.Close()

	var userIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user ids: %w", err)
	}

	return userIDs, nil
}

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var subtasksJSON []byte
	var dueDate, startTime, endTime, updatedAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Title,
		&item.Summary,
		&item.Type,
		&item.Completed,
		&dueDate,
		&startTime,
		&endTime,
		&subtasksJSON,
		&item.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(subtasksJSON) > 0 {
		if err := json.Unmarshal(subtasksJSON, &item.Subtasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal subtasks: %w", err)
		}
	}

	item.DueDate = timeOrNil(dueDate)
	item.StartTime = timeOrNil(startTime)
	item.EndTime = timeOrNil(endTime)
	item.UpdatedAt = timeOrNil(updatedAt)

	return item, nil
}

func timeOrNil(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}
