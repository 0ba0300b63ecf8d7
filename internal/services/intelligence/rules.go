package intelligence

import (
	"fmt"
	"sort"
	"time"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// Weights of the rule-based priority formula
const (
	weightUrgency         = 0.35
	weightComplexity      = 0.25
	weightTimeFit         = 0.20
	weightTypePriority    = 0.10
	weightUserPerformance = 0.10
)

// neutralUserPerformance stands in for a per-user completion signal that
// is not collected yet
const neutralUserPerformance = 0.5

// fallbackConfidence is the fixed confidence assigned to every item when
// the rule-based path produced the ranking
const fallbackConfidence = 0.7

// typePriorities is the fixed type-priority table
var typePriorities = map[models.ItemType]float64{
	models.ItemTypeMeeting:   1.0,
	models.ItemTypeTask:      0.9,
	models.ItemTypeReminder:  0.8,
	models.ItemTypeFinancial: 0.7,
	models.ItemTypeIdea:      0.4,
	models.ItemTypeNote:      0.3,
}

// prioritizeRuleBased scores every item deterministically, sorts by
// descending score with stable ties, and assigns contiguous ranks 1..N
func prioritizeRuleBased(items []models.Item, availableMinutes int, now time.Time) *models.PrioritizationResult {
	tasks := make([]models.PrioritizedTask, 0, len(items))
	for i := range items {
		item := &items[i]
		score := models.Clamp01(
			weightUrgency*urgencyScore(item, now) +
				weightComplexity*complexityScore(item) +
				weightTimeFit*timeFitScore(item, availableMinutes) +
				weightTypePriority*typePriorityScore(item.Type) +
				weightUserPerformance*neutralUserPerformance,
		)
		tasks = append(tasks, models.PrioritizedTask{
			ItemID:     item.ID,
			Score:      score,
			Reasoning:  buildReasoning(item, now),
			Confidence: fallbackConfidence,
		})
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Score > tasks[j].Score
	})
	for i := range tasks {
		tasks[i].Rank = i + 1
	}

	return &models.PrioritizationResult{
		Tasks:         tasks,
		Justification: buildJustification(tasks),
		Confidence:    fallbackConfidence,
	}
}

// urgencyScore maps days-until-due to a tiered sub-score. Overdue items
// score strictly higher than any future-dated item.
func urgencyScore(item *models.Item, now time.Time) float64 {
	if item.DueDate == nil {
		return 0.3
	}
	until := item.DueDate.Sub(now)
	switch {
	case until < 0:
		return 1.0
	case until <= 24*time.Hour:
		return 0.95
	case until <= 3*24*time.Hour:
		return 0.85
	case until <= 7*24*time.Hour:
		return 0.7
	case until <= 14*24*time.Hour:
		return 0.5
	default:
		return 0.3
	}
}

func complexityScore(item *models.Item) float64 {
	switch models.DeriveComplexity(item) {
	case models.ComplexityHigh:
		return 0.9
	case models.ComplexityMedium:
		return 0.6
	default:
		return 0.3
	}
}

// timeFitScore compares the item's estimated duration against the
// caller's available-time budget; no budget yields a neutral score
func timeFitScore(item *models.Item, availableMinutes int) float64 {
	if availableMinutes <= 0 {
		return 0.5
	}
	estimated := models.DeriveComplexity(item).EstimatedMinutes()
	switch {
	case estimated <= availableMinutes:
		return 1.0
	case float64(estimated) <= 1.5*float64(availableMinutes):
		return 0.6
	default:
		return 0.2
	}
}

func typePriorityScore(t models.ItemType) float64 {
	if p, ok := typePriorities[t]; ok {
		return p
	}
	return 0.5
}

// buildReasoning emits human-readable justification strings for one item,
// most significant factor first. Every item gets at least one reason.
func buildReasoning(item *models.Item, now time.Time) []string {
	var reasons []string

	if item.DueDate != nil {
		until := item.DueDate.Sub(now)
		switch {
		case until < 0:
			reasons = append(reasons, "Overdue and needs immediate attention")
		case until <= 24*time.Hour:
			reasons = append(reasons, "Due within the next 24 hours")
		case until <= 3*24*time.Hour:
			reasons = append(reasons, "Due in the next few days")
		}
	}

	switch models.DeriveComplexity(item) {
	case models.ComplexityHigh:
		reasons = append(reasons, "High complexity, reserve a large time block")
	case models.ComplexityLow:
		reasons = append(reasons, "Low complexity, a quick win")
	}

	switch item.Type {
	case models.ItemTypeMeeting:
		reasons = append(reasons, "Occupies a fixed time slot")
	case models.ItemTypeFinancial:
		reasons = append(reasons, "Carries deadline implications")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Scheduled according to overall workload")
	}
	return reasons
}

// buildJustification summarizes the ranked list by counting items in the
// high (>0.7), medium and low (<0.4) score bands
func buildJustification(tasks []models.PrioritizedTask) string {
	high, low := 0, 0
	for _, t := range tasks {
		if t.Score > 0.7 {
			high++
		}
		if t.Score < 0.4 {
			low++
		}
	}
	medium := len(tasks) - high - low
	return fmt.Sprintf(
		"Ranked %d items by urgency, complexity, time fit and type: %d high priority (score > 0.7), %d medium, %d low (score < 0.4).",
		len(tasks), high, medium, low,
	)
}
