package intelligence

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// Per-type confidence caps
const (
	recurringConfidenceCap    = 0.95
	batchConfidenceCap        = 0.85
	postponementConfidenceCap = 0.90
	performanceConfidenceCap  = 0.80
)

const (
	// batchMemberMinutes is the assumed effort per item in a batch
	batchMemberMinutes = 30
	// postponementThresholdDays is how long an item may sit before it
	// counts as postponed
	postponementThresholdDays = 7
)

// PatternConfig tunes the pattern detectors
type PatternConfig struct {
	// MinOccurrences is how many matching items a group needs to qualify
	MinOccurrences int
	// MinConfidence filters out weakly supported patterns
	MinConfidence float64
}

// DefaultPatternConfig returns the default detector configuration
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		MinOccurrences: 3,
		MinConfidence:  0.6,
	}
}

// PatternDetector mines a user's item history for recurring, batchable,
// postponed and performance patterns
type PatternDetector struct {
	store  PatternStore
	logger *zap.Logger
	config PatternConfig
	now    func() time.Time
}

// NewPatternDetector creates a pattern detector
func NewPatternDetector(store PatternStore, config PatternConfig, logger *zap.Logger) *PatternDetector {
	if store == nil {
		store = NopStores{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MinOccurrences <= 0 {
		config.MinOccurrences = DefaultPatternConfig().MinOccurrences
	}
	if config.MinConfidence <= 0 {
		config.MinConfidence = DefaultPatternConfig().MinConfidence
	}
	return &PatternDetector{
		store:  store,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// DetectPatterns runs all four detectors concurrently over the item
// snapshot and returns the patterns whose confidence meets the
// configured threshold. Confidence grows with evidence, so a recurring
// title seen only a few times scores below the default 0.6 threshold
// and stays hidden until more history accumulates; lower
// PatternConfig.MinConfidence to surface weaker signals. Detected
// patterns are persisted; storage failures are logged and swallowed.
func (d *PatternDetector) DetectPatterns(ctx context.Context, userID uuid.UUID, items []models.Item) ([]models.DetectedPattern, error) {
	if items == nil {
		return nil, ErrNilItems
	}

	detected := runDetectors(d.logger, []detector[models.DetectedPattern]{
		{name: "recurring", run: func() ([]models.DetectedPattern, error) { return d.detectRecurring(items), nil }},
		{name: "batch", run: func() ([]models.DetectedPattern, error) { return d.detectBatchOpportunities(items), nil }},
		{name: "postponement", run: func() ([]models.DetectedPattern, error) { return d.detectPostponements(items), nil }},
		{name: "performance", run: func() ([]models.DetectedPattern, error) { return d.detectPerformance(items), nil }},
	})

	patterns := detected[:0:0]
	for _, p := range detected {
		if p.Confidence >= d.config.MinConfidence {
			patterns = append(patterns, p)
		}
	}

	d.persist(ctx, userID, patterns)
	return patterns, nil
}

// detectRecurring groups items by normalized title and flags titles that
// keep coming back, classifying the cadence from the mean gap between
// consecutive occurrences
func (d *PatternDetector) detectRecurring(items []models.Item) []models.DetectedPattern {
	groups := make(map[string][]time.Time)
	titles := make(map[string]string)
	var order []string
	for i := range items {
		key := models.NormalizeTitle(items[i].Title)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
			titles[key] = items[i].Title
		}
		groups[key] = append(groups[key], items[i].CreatedAt)
	}

	var patterns []models.DetectedPattern
	for _, key := range order {
		occurrences := groups[key]
		count := len(occurrences)
		if count < d.config.MinOccurrences {
			continue
		}

		sort.Slice(occurrences, func(i, j int) bool { return occurrences[i].Before(occurrences[j]) })
		var totalGapDays float64
		for i := 1; i < count; i++ {
			totalGapDays += occurrences[i].Sub(occurrences[i-1]).Hours() / 24
		}
		avgGapDays := totalGapDays / float64(count-1)

		recurrence := models.RecurrenceMonthly
		switch {
		case avgGapDays <= 2:
			recurrence = models.RecurrenceDaily
		case avgGapDays <= 10:
			recurrence = models.RecurrenceWeekly
		}

		impact := models.ImpactMedium
		if count > 5 {
			impact = models.ImpactHigh
		}

		patterns = append(patterns, models.DetectedPattern{
			Type: models.PatternTypeRecurring,
			Recurring: &models.RecurringPattern{
				Title:               titles[key],
				Frequency:           count,
				AverageGapDays:      avgGapDays,
				SuggestedRecurrence: recurrence,
			},
			Confidence: math.Min(float64(count)/10, recurringConfidenceCap),
			Suggestion: models.PatternSuggestion{
				ID:          uuid.New(),
				Title:       fmt.Sprintf("Make %q a %s recurring item", titles[key], recurrence),
				Description: fmt.Sprintf("%q has appeared %d times, about every %.1f days. Creating it as a %s recurring item saves re-entering it.", titles[key], count, avgGapDays, recurrence),
				Impact:      impact,
			},
		})
	}
	return patterns
}

// detectBatchOpportunities groups incomplete items by type and flags
// groups large enough to handle in a single focused block
func (d *PatternDetector) detectBatchOpportunities(items []models.Item) []models.DetectedPattern {
	groups := make(map[models.ItemType][]*models.Item)
	var order []models.ItemType
	for i := range items {
		if items[i].Completed {
			continue
		}
		if _, seen := groups[items[i].Type]; !seen {
			order = append(order, items[i].Type)
		}
		groups[items[i].Type] = append(groups[items[i].Type], &items[i])
	}

	var patterns []models.DetectedPattern
	for _, itemType := range order {
		group := groups[itemType]
		if len(group) < d.config.MinOccurrences {
			continue
		}
		withDueDate := 0
		ids := make([]uuid.UUID, 0, len(group))
		for _, item := range group {
			ids = append(ids, item.ID)
			if item.DueDate != nil {
				withDueDate++
			}
		}
		if withDueDate < 2 {
			continue
		}

		estimatedMinutes := len(group) * batchMemberMinutes
		block := "morning"
		if estimatedMinutes > 90 {
			block = "afternoon"
		}
		impact := models.ImpactMedium
		if estimatedMinutes > 120 {
			impact = models.ImpactHigh
		}

		patterns = append(patterns, models.DetectedPattern{
			Type: models.PatternTypeBatch,
			Batch: &models.BatchPattern{
				ItemType:         itemType,
				ItemIDs:          ids,
				EstimatedMinutes: estimatedMinutes,
				SuggestedBlock:   block,
			},
			Confidence: math.Min(float64(len(group))/5, batchConfidenceCap),
			Suggestion: models.PatternSuggestion{
				ID:          uuid.New(),
				Title:       fmt.Sprintf("Batch %d %s items in one %s block", len(group), itemType, block),
				Description: fmt.Sprintf("Handling these %d %s items together should take about %d minutes and avoids context switching.", len(group), itemType, estimatedMinutes),
				Impact:      impact,
			},
		})
	}
	return patterns
}

// detectPostponements flags incomplete items whose last update drifted
// more than a week past their creation
func (d *PatternDetector) detectPostponements(items []models.Item) []models.DetectedPattern {
	var patterns []models.DetectedPattern
	for i := range items {
		item := &items[i]
		if item.Completed || item.UpdatedAt == nil {
			continue
		}
		daysDiff := item.UpdatedAt.Sub(item.CreatedAt).Hours() / 24
		if daysDiff <= postponementThresholdDays {
			continue
		}

		action := "break_down"
		if len(item.Subtasks) > 0 {
			action = "schedule_block"
		}
		impact := models.ImpactMedium
		if daysDiff > 30 {
			impact = models.ImpactHigh
		}

		patterns = append(patterns, models.DetectedPattern{
			Type: models.PatternTypePostponement,
			Postponement: &models.PostponementPattern{
				ItemID:            item.ID,
				Title:             item.Title,
				DaysPostponed:     int(daysDiff),
				PostponementCount: int(daysDiff) / postponementThresholdDays,
				SuggestedAction:   action,
			},
			Confidence: math.Min(daysDiff/30, postponementConfidenceCap),
			Suggestion: models.PatternSuggestion{
				ID:          uuid.New(),
				Title:       postponementSuggestionTitle(action, item.Title),
				Description: fmt.Sprintf("%q has been pending for %d days without completion.", item.Title, int(daysDiff)),
				Impact:      impact,
			},
		})
	}
	return patterns
}

func postponementSuggestionTitle(action, title string) string {
	if action == "schedule_block" {
		return fmt.Sprintf("Schedule a dedicated block for %q", title)
	}
	return fmt.Sprintf("Break %q into smaller steps", title)
}

// detectPerformance groups completed items by type and reports type-level
// completion rates. Best time slot is a fixed placeholder until per-user
// completion timing is collected.
func (d *PatternDetector) detectPerformance(items []models.Item) []models.DetectedPattern {
	completed := make(map[models.ItemType]int)
	total := make(map[models.ItemType]int)
	var order []models.ItemType
	for i := range items {
		t := items[i].Type
		if _, seen := total[t]; !seen {
			order = append(order, t)
		}
		total[t]++
		if items[i].Completed {
			completed[t]++
		}
	}

	var patterns []models.DetectedPattern
	for _, itemType := range order {
		completedCount := completed[itemType]
		if completedCount < d.config.MinOccurrences {
			continue
		}
		denominator := total[itemType]
		if denominator < 1 {
			denominator = 1
		}
		completionRate := float64(completedCount) / float64(denominator)

		impact := models.ImpactLow
		if completionRate > 0.7 {
			impact = models.ImpactMedium
		}

		patterns = append(patterns, models.DetectedPattern{
			Type: models.PatternTypePerformance,
			Performance: &models.PerformancePattern{
				ItemType:       itemType,
				CompletedCount: completedCount,
				CompletionRate: completionRate,
				BestTimeSlot:   "morning",
			},
			Confidence: math.Min(float64(completedCount)/10, performanceConfidenceCap),
			Suggestion: models.PatternSuggestion{
				ID:          uuid.New(),
				Title:       fmt.Sprintf("You complete %.0f%% of your %s items", completionRate*100, itemType),
				Description: fmt.Sprintf("%d of %d %s items completed. Lean on this strength when planning.", completedCount, denominator, itemType),
				Impact:      impact,
			},
		})
	}
	return patterns
}

// persist upserts each pattern's aggregate record and appends its
// suggestion. Failures are logged and swallowed.
func (d *PatternDetector) persist(ctx context.Context, userID uuid.UUID, patterns []models.DetectedPattern) {
	for i := range patterns {
		p := &patterns[i]
		if err := d.store.UpsertPattern(ctx, userID, p.Type, p); err != nil {
			d.logger.Warn("failed_to_upsert_pattern",
				zap.String("user_id", userID.String()),
				zap.String("pattern_type", string(p.Type)),
				zap.Error(err),
			)
		}
		if err := d.store.StoreSuggestion(ctx, userID, &p.Suggestion); err != nil {
			d.logger.Warn("failed_to_store_suggestion",
				zap.String("user_id", userID.String()),
				zap.String("suggestion_id", p.Suggestion.ID.String()),
				zap.Error(err),
			)
		}
	}
}
