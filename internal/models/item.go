package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemType represents the kind of productivity item
type ItemType string

const (
	ItemTypeTask      ItemType = "task"
	ItemTypeIdea      ItemType = "idea"
	ItemTypeNote      ItemType = "note"
	ItemTypeReminder  ItemType = "reminder"
	ItemTypeFinancial ItemType = "financial"
	ItemTypeMeeting   ItemType = "meeting"
)

// Valid reports whether t is one of the known item types
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeTask, ItemTypeIdea, ItemTypeNote, ItemTypeReminder, ItemTypeFinancial, ItemTypeMeeting:
		return true
	}
	return false
}

// Subtask is a single step inside an item
type Subtask struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
}

// Item represents a user-owned productivity item. The intelligence engine
// treats items as a read-only snapshot; it never mutates or refetches them.
type Item struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary,omitempty"`
	Type      ItemType   `json:"type"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Subtasks  []Subtask  `json:"subtasks,omitempty"`
}
