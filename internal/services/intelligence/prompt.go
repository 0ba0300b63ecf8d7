package intelligence

import (
	"fmt"
	"strings"
	"time"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// prioritizationSchemaName names the structured response schema
const prioritizationSchemaName = "prioritization"

// prioritizationSchema is the JSON schema the provider's response must
// conform to. It mirrors aiPrioritization in scorer.go.
func prioritizationSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"tasks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"item_id":    map[string]any{"type": "string"},
						"score":      map[string]any{"type": "number"},
						"rank":       map[string]any{"type": "integer"},
						"reasoning":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"confidence": map[string]any{"type": "number"},
					},
					"required": []string{"item_id", "score", "rank", "reasoning", "confidence"},
				},
			},
			"justification": map[string]any{"type": "string"},
			"confidence":    map[string]any{"type": "number"},
		},
		"required": []string{"tasks", "justification", "confidence"},
	}
}

// buildPrioritizationPrompt describes every item plus the caller's time
// budget and preferences for the structured generation call
func buildPrioritizationPrompt(items []models.Item, availableMinutes int, preferences string, now time.Time) string {
	var b strings.Builder

	b.WriteString("Rank the following productivity items by priority (most important first).\n")
	b.WriteString("For each item return a score in [0,1], a rank starting at 1 with no gaps, ")
	b.WriteString("a short list of reasons, and a confidence in [0,1]. ")
	b.WriteString("Also return an overall justification and an overall confidence.\n\n")

	fmt.Fprintf(&b, "Current date and time: %s\n", now.Format(time.RFC3339))
	if availableMinutes > 0 {
		fmt.Fprintf(&b, "Available time today: %d minutes\n", availableMinutes)
	}
	if preferences != "" {
		fmt.Fprintf(&b, "User preferences: %s\n", preferences)
	}

	b.WriteString("\nItems:\n")
	for i := range items {
		item := &items[i]
		fmt.Fprintf(&b, "- id: %s\n", item.ID)
		fmt.Fprintf(&b, "  title: %q\n", item.Title)
		fmt.Fprintf(&b, "  type: %s\n", item.Type)
		fmt.Fprintf(&b, "  completed: %t\n", item.Completed)
		fmt.Fprintf(&b, "  complexity: %s\n", models.DeriveComplexity(item))
		fmt.Fprintf(&b, "  subtasks: %d\n", len(item.Subtasks))
		if item.DueDate != nil {
			daysUntil := int(item.DueDate.Sub(now).Hours() / 24)
			fmt.Fprintf(&b, "  due: %s (in %d days)\n", item.DueDate.Format(time.RFC3339), daysUntil)
		}
	}

	b.WriteString("\nGuidelines:\n")
	b.WriteString("- Overdue items and items due within 24 hours come first.\n")
	b.WriteString("- Prefer items that fit within the available time when a budget is given.\n")
	b.WriteString("- Meetings occupy fixed slots; financial items carry deadline implications.\n")
	b.WriteString("- Every input item must appear exactly once in the response.\n")

	return b.String()
}
