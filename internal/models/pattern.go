package models

import (
	"github.com/google/uuid"
)

// PatternType identifies a family of detected behavior
type PatternType string

const (
	PatternTypeRecurring    PatternType = "recurring"
	PatternTypeBatch        PatternType = "batch"
	PatternTypePostponement PatternType = "postponement"
	PatternTypePerformance  PatternType = "performance"
)

// Impact rates how much a suggestion is expected to help
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Recurrence is the cadence suggested for a recurring pattern
type Recurrence string

const (
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// RecurringPattern describes a title that keeps coming back
type RecurringPattern struct {
	Title               string     `json:"title"`
	Frequency           int        `json:"frequency"`
	AverageGapDays      float64    `json:"average_gap_days"`
	SuggestedRecurrence Recurrence `json:"suggested_recurrence"`
}

// BatchPattern describes a group of similar incomplete items that could be
// handled in one sitting
type BatchPattern struct {
	ItemType         ItemType    `json:"item_type"`
	ItemIDs          []uuid.UUID `json:"item_ids"`
	EstimatedMinutes int         `json:"estimated_minutes"`
	SuggestedBlock   string      `json:"suggested_block"` // "morning" or "afternoon"
}

// PostponementPattern describes an item that has sat incomplete too long
type PostponementPattern struct {
	ItemID            uuid.UUID `json:"item_id"`
	Title             string    `json:"title"`
	DaysPostponed     int       `json:"days_postponed"`
	PostponementCount int       `json:"postponement_count"`
	SuggestedAction   string    `json:"suggested_action"` // "schedule_block" or "break_down"
}

// PerformancePattern describes type-level completion behavior
type PerformancePattern struct {
	ItemType       ItemType `json:"item_type"`
	CompletedCount int      `json:"completed_count"`
	CompletionRate float64  `json:"completion_rate"`
	BestTimeSlot   string   `json:"best_time_slot"`
}

// PatternSuggestion is the user-facing proactive suggestion for a pattern
type PatternSuggestion struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Impact      Impact    `json:"impact"`
}

// DetectedPattern is one pattern found in a user's item history.
// Exactly one of the typed variants is set, matching Type.
type DetectedPattern struct {
	Type         PatternType          `json:"type"`
	Recurring    *RecurringPattern    `json:"recurring,omitempty"`
	Batch        *BatchPattern        `json:"batch,omitempty"`
	Postponement *PostponementPattern `json:"postponement,omitempty"`
	Performance  *PerformancePattern  `json:"performance,omitempty"`
	Confidence   float64              `json:"confidence"`
	Suggestion   PatternSuggestion    `json:"suggestion"`
}
