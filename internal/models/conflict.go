package models

import (
	"time"

	"github.com/google/uuid"
)

// ConflictType identifies a family of detected scheduling problem
type ConflictType string

const (
	ConflictTypeScheduling ConflictType = "scheduling"
	ConflictTypeOverload   ConflictType = "overload"
	ConflictTypeDeadline   ConflictType = "deadline"
)

// Severity rates how urgent a conflict is
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ConflictAction is the kind of resolution a suggestion proposes
type ConflictAction string

const (
	ActionReschedule ConflictAction = "reschedule"
	ActionDelegate   ConflictAction = "delegate"
	ActionExtend     ConflictAction = "extend"
)

// ConflictSuggestion is one proposed resolution for a conflict
type ConflictSuggestion struct {
	Action  ConflictAction `json:"action"`
	Details string         `json:"details"`
	Impact  string         `json:"impact"`
}

// DetectedConflict is one scheduling or workload problem found in a
// user's items. Resolved is false at detection time and flipped exactly
// once, externally, when the user addresses it.
type DetectedConflict struct {
	Type             ConflictType         `json:"type"`
	Severity         Severity             `json:"severity"`
	Description      string               `json:"description"`
	ConflictingItems []uuid.UUID          `json:"conflicting_items"`
	Suggestions      []ConflictSuggestion `json:"suggestions"`
	Resolved         bool                 `json:"resolved"`
	DetectedAt       time.Time            `json:"detected_at"`
}
