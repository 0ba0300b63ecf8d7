package models

import (
	"github.com/google/uuid"
)

// PrioritizedTask is one item's position in a prioritization run
type PrioritizedTask struct {
	ItemID     uuid.UUID `json:"item_id"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
	Reasoning  []string  `json:"reasoning"`
	Confidence float64   `json:"confidence"`
}

// PrioritizationResult is the full reasoned output of one prioritization run
type PrioritizationResult struct {
	Tasks         []PrioritizedTask `json:"tasks"`
	Justification string            `json:"justification"`
	Confidence    float64           `json:"confidence"`
}

// Clamp01 clamps v into the closed interval [0,1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
