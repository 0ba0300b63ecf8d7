package intelligence

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

const (
	// overloadHighComplexityLimit is the most high-complexity items a day
	// can hold before it counts as overloaded
	overloadHighComplexityLimit = 3
	// overloadTotalLimit is the most items of any complexity a day can hold
	overloadTotalLimit = 8
	// rescheduleGap is the buffer inserted between rescheduled meetings
	rescheduleGap = 30 * time.Minute
	// deadlineLookahead is how far ahead deadline pressure is checked
	deadlineLookahead = 2 * 24 * time.Hour
	// deadlineMeetingLimit is how many same-day meetings trigger a
	// deadline conflict
	deadlineMeetingLimit = 3
)

// ConflictRequest carries one conflict detection call's inputs.
// NewItem, if set, is an item being inserted that should be checked
// against the existing collection. WindowStart/WindowEnd, if both set,
// restrict the analysis to items falling inside the window.
type ConflictRequest struct {
	UserID      uuid.UUID
	Items       []models.Item
	NewItem     *models.Item
	WindowStart *time.Time
	WindowEnd   *time.Time
}

// calendarItem is the uniform view the conflict detectors operate on
type calendarItem struct {
	ID         uuid.UUID
	Title      string
	Type       models.ItemType
	Completed  bool
	Start      *time.Time
	End        *time.Time
	Due        *time.Time
	Complexity models.Complexity
}

// ConflictDetector checks a user's items for scheduling overlaps, daily
// overload and deadline-versus-meeting pressure
type ConflictDetector struct {
	store  ConflictStore
	logger *zap.Logger
	now    func() time.Time
}

// NewConflictDetector creates a conflict detector
func NewConflictDetector(store ConflictStore, logger *zap.Logger) *ConflictDetector {
	if store == nil {
		store = NopStores{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// DetectConflicts converts the item snapshot (plus the optional new
// item) to a uniform calendar view and runs the three detectors
// concurrently. Detected conflicts are persisted; storage failures are
// logged and swallowed.
func (d *ConflictDetector) DetectConflicts(ctx context.Context, req *ConflictRequest) ([]models.DetectedConflict, error) {
	if req == nil || req.Items == nil {
		return nil, ErrNilItems
	}

	now := d.now()
	view := d.buildCalendarView(req)

	conflicts := runDetectors(d.logger, []detector[models.DetectedConflict]{
		{name: "scheduling", run: func() ([]models.DetectedConflict, error) { return d.detectSchedulingOverlaps(view, now), nil }},
		{name: "overload", run: func() ([]models.DetectedConflict, error) { return d.detectOverloadedDays(view, now), nil }},
		{name: "deadline", run: func() ([]models.DetectedConflict, error) { return d.detectDeadlinePressure(view, now), nil }},
	})

	d.persist(ctx, req.UserID, conflicts)
	return conflicts, nil
}

// buildCalendarView flattens items (and the optional new item) into the
// detectors' uniform shape, applying the request window if given
func (d *ConflictDetector) buildCalendarView(req *ConflictRequest) []calendarItem {
	source := req.Items
	if req.NewItem != nil {
		source = append(append([]models.Item{}, req.Items...), *req.NewItem)
	}

	view := make([]calendarItem, 0, len(source))
	for i := range source {
		item := &source[i]
		if !d.inWindow(item, req.WindowStart, req.WindowEnd) {
			continue
		}
		view = append(view, calendarItem{
			ID:         item.ID,
			Title:      item.Title,
			Type:       item.Type,
			Completed:  item.Completed,
			Start:      item.StartTime,
			End:        item.EndTime,
			Due:        item.DueDate,
			Complexity: models.DeriveComplexity(item),
		})
	}
	return view
}

// inWindow reports whether the item's anchor time (due date if present,
// else start time) falls inside the optional window. Items without
// either anchor always pass.
func (d *ConflictDetector) inWindow(item *models.Item, start, end *time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	anchor := item.DueDate
	if anchor == nil {
		anchor = item.StartTime
	}
	if anchor == nil {
		return true
	}
	return !anchor.Before(*start) && !anchor.After(*end)
}

// detectSchedulingOverlaps flags every pair of timed items whose open
// intervals overlap. Touching endpoints do not conflict.
func (d *ConflictDetector) detectSchedulingOverlaps(view []calendarItem, now time.Time) []models.DetectedConflict {
	timed := make([]calendarItem, 0, len(view))
	for _, item := range view {
		if item.Start != nil && item.End != nil {
			timed = append(timed, item)
		}
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].Start.Before(*timed[j].Start) })

	var conflicts []models.DetectedConflict
	for i := 0; i < len(timed); i++ {
		for j := i + 1; j < len(timed); j++ {
			earlier, later := timed[i], timed[j]
			if !(earlier.Start.Before(*later.End) && later.Start.Before(*earlier.End)) {
				continue
			}

			laterStart := earlier.End.Add(rescheduleGap)
			earlierStart := later.End.Add(rescheduleGap)
			conflicts = append(conflicts, models.DetectedConflict{
				Type:             models.ConflictTypeScheduling,
				Severity:         models.SeverityCritical,
				Description:      fmt.Sprintf("%q overlaps with %q", earlier.Title, later.Title),
				ConflictingItems: []uuid.UUID{earlier.ID, later.ID},
				Suggestions: []models.ConflictSuggestion{
					{
						Action:  models.ActionReschedule,
						Details: fmt.Sprintf("Move %q to start at %s, 30 minutes after %q ends", later.Title, laterStart.Format("15:04"), earlier.Title),
						Impact:  "Resolves the overlap while keeping both items on the same day",
					},
					{
						Action:  models.ActionReschedule,
						Details: fmt.Sprintf("Alternatively, move %q to start at %s, after %q ends", earlier.Title, earlierStart.Format("15:04"), later.Title),
						Impact:  "Keeps the later item in its original slot",
					},
				},
				DetectedAt: now,
			})
		}
	}
	return conflicts
}

// detectOverloadedDays groups items by calendar day (due date, else
// start time) and flags days carrying too much work
func (d *ConflictDetector) detectOverloadedDays(view []calendarItem, now time.Time) []models.DetectedConflict {
	type dayGroup struct {
		items     []calendarItem
		highCount int
	}
	days := make(map[string]*dayGroup)
	var order []string
	for _, item := range view {
		anchor := item.Due
		if anchor == nil {
			anchor = item.Start
		}
		if anchor == nil {
			continue
		}
		day := anchor.Format("2006-01-02")
		group, ok := days[day]
		if !ok {
			group = &dayGroup{}
			days[day] = group
			order = append(order, day)
		}
		group.items = append(group.items, item)
		if item.Complexity == models.ComplexityHigh {
			group.highCount++
		}
	}
	sort.Strings(order)

	var conflicts []models.DetectedConflict
	for _, day := range order {
		group := days[day]
		if group.highCount <= overloadHighComplexityLimit && len(group.items) <= overloadTotalLimit {
			continue
		}

		// Days tripped by the high-complexity limit are critical; days
		// tripped only by raw item count are a warning
		severity := models.SeverityWarning
		if group.highCount > overloadHighComplexityLimit {
			severity = models.SeverityCritical
		}

		ids := make([]uuid.UUID, 0, len(group.items))
		for _, item := range group.items {
			ids = append(ids, item.ID)
		}

		suggestions := d.overloadSuggestions(group.items, now)
		conflicts = append(conflicts, models.DetectedConflict{
			Type:             models.ConflictTypeOverload,
			Severity:         severity,
			Description:      fmt.Sprintf("%s is overloaded: %d items, %d of them high complexity", day, len(group.items), group.highCount),
			ConflictingItems: ids,
			Suggestions:      suggestions,
			DetectedAt:       now,
		})
	}
	return conflicts
}

// overloadSuggestions proposes delegating easy tasks and pushing
// flexible deadlines out by two days
func (d *ConflictDetector) overloadSuggestions(items []calendarItem, now time.Time) []models.ConflictSuggestion {
	var suggestions []models.ConflictSuggestion
	for _, item := range items {
		if item.Type == models.ItemTypeTask && !item.Completed && item.Complexity == models.ComplexityLow {
			suggestions = append(suggestions, models.ConflictSuggestion{
				Action:  models.ActionDelegate,
				Details: fmt.Sprintf("Delegate %q; it is low complexity and still open", item.Title),
				Impact:  "Frees time for the day's high-complexity work",
			})
		}
		if item.Due != nil && item.Due.Sub(now) > 2*24*time.Hour {
			moved := item.Due.AddDate(0, 0, 2)
			suggestions = append(suggestions, models.ConflictSuggestion{
				Action:  models.ActionReschedule,
				Details: fmt.Sprintf("Move %q to %s; its deadline has slack", item.Title, moved.Format("2006-01-02")),
				Impact:  "Spreads the load across nearby days",
			})
		}
	}
	return suggestions
}

// detectDeadlinePressure flags items due in the next two days whose due
// day is already crowded with meetings
func (d *ConflictDetector) detectDeadlinePressure(view []calendarItem, now time.Time) []models.DetectedConflict {
	var conflicts []models.DetectedConflict
	for _, item := range view {
		if item.Due == nil {
			continue
		}
		until := item.Due.Sub(now)
		if until < 0 || until > deadlineLookahead {
			continue
		}

		dueDay := item.Due.Format("2006-01-02")
		var meetings []calendarItem
		for _, other := range view {
			if other.ID == item.ID || other.Type != models.ItemTypeMeeting || other.Start == nil {
				continue
			}
			if other.Start.Format("2006-01-02") == dueDay {
				meetings = append(meetings, other)
			}
		}
		if len(meetings) < deadlineMeetingLimit {
			continue
		}

		ids := make([]uuid.UUID, 0, len(meetings)+1)
		ids = append(ids, item.ID)
		for _, m := range meetings {
			ids = append(ids, m.ID)
		}

		extended := item.Due.AddDate(0, 0, 2)
		earlierStart := item.Due.AddDate(0, 0, -1)
		conflicts = append(conflicts, models.DetectedConflict{
			Type:             models.ConflictTypeDeadline,
			Severity:         models.SeverityWarning,
			Description:      fmt.Sprintf("%q is due on %s, a day with %d meetings", item.Title, dueDay, len(meetings)),
			ConflictingItems: ids,
			Suggestions: []models.ConflictSuggestion{
				{
					Action:  models.ActionExtend,
					Details: fmt.Sprintf("Extend the due date of %q to %s", item.Title, extended.Format("2006-01-02")),
					Impact:  "Moves the deadline off the meeting-heavy day",
				},
				{
					Action:  models.ActionReschedule,
					Details: fmt.Sprintf("Alternatively, start the work on %s, a day before the deadline", earlierStart.Format("2006-01-02")),
					Impact:  "Finishes the work before the meetings pile up",
				},
			},
			DetectedAt: now,
		})
	}
	return conflicts
}

// persist appends every conflict to storage. Failures are logged and
// swallowed.
func (d *ConflictDetector) persist(ctx context.Context, userID uuid.UUID, conflicts []models.DetectedConflict) {
	for i := range conflicts {
		c := &conflicts[i]
		if err := d.store.StoreConflict(ctx, userID, c); err != nil {
			d.logger.Warn("failed_to_store_conflict",
				zap.String("user_id", userID.String()),
				zap.String("conflict_type", string(c.Type)),
				zap.Error(err),
			)
		}
	}
}
