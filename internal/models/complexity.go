package models

import "strings"

// Complexity is a derived low/medium/high classification of an item.
// It is computed on demand from subtask count and title length, never stored.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

const (
	highSubtaskCount   = 5
	mediumSubtaskCount = 2
	highTitleLength    = 100
	mediumTitleLength  = 50
)

// DeriveComplexity classifies an item from its subtask count and title length
func DeriveComplexity(item *Item) Complexity {
	subtasks := len(item.Subtasks)
	titleLen := len(item.Title)

	if subtasks > highSubtaskCount || (titleLen > highTitleLength && item.Summary != "") {
		return ComplexityHigh
	}
	if subtasks > mediumSubtaskCount || titleLen > mediumTitleLength {
		return ComplexityMedium
	}
	return ComplexityLow
}

// EstimatedMinutes returns the assumed working duration for a complexity class
func (c Complexity) EstimatedMinutes() int {
	switch c {
	case ComplexityHigh:
		return 120
	case ComplexityMedium:
		return 60
	default:
		return 30
	}
}

// NormalizeTitle lowercases and trims a title so recurring items with
// inconsistent casing or whitespace group together
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
