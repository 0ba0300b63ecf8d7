package intelligence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guilhermexp/zenith-tasks/internal/models"
)

// AnalyzeRequest carries one grouped analysis call's inputs. Items is
// the full snapshot of the user's items; the remaining fields feed the
// individual components as in their standalone requests.
type AnalyzeRequest struct {
	UserID           uuid.UUID
	Items            []models.Item
	AvailableMinutes int
	Preferences      string
	NewItem          *models.Item
	WindowStart      *time.Time
	WindowEnd        *time.Time
}

// Analysis groups the three components' outputs for one request.
// AIError carries the provider failure behind a rule-based
// Prioritization, when there was one. It never fails Analyze and is
// not serialized; callers that can reschedule work use it to decide.
type Analysis struct {
	Prioritization *models.PrioritizationResult `json:"prioritization"`
	Patterns       []models.DetectedPattern     `json:"patterns"`
	Conflicts      []models.DetectedConflict    `json:"conflicts"`
	AIError        error                        `json:"-"`
}

// Engine is the thin orchestration layer over the three analytical
// components. The components are siblings operating on the same
// read-only snapshot; none depends on another's output.
type Engine struct {
	scorer    *Scorer
	patterns  *PatternDetector
	conflicts *ConflictDetector
}

// NewEngine creates an engine from explicitly constructed components
func NewEngine(scorer *Scorer, patterns *PatternDetector, conflicts *ConflictDetector) *Engine {
	return &Engine{
		scorer:    scorer,
		patterns:  patterns,
		conflicts: conflicts,
	}
}

// Scorer returns the engine's priority scorer
func (e *Engine) Scorer() *Scorer { return e.scorer }

// Patterns returns the engine's pattern detector
func (e *Engine) Patterns() *PatternDetector { return e.patterns }

// Conflicts returns the engine's conflict detector
func (e *Engine) Conflicts() *ConflictDetector { return e.conflicts }

// Analyze runs all three components concurrently over the snapshot and
// groups their outputs. A nil item collection fails fast; each
// component otherwise degrades internally rather than erroring.
func (e *Engine) Analyze(ctx context.Context, req *AnalyzeRequest) (*Analysis, error) {
	if req == nil || req.Items == nil {
		return nil, ErrNilItems
	}

	var (
		wg       sync.WaitGroup
		analysis Analysis
		firstErr error
		mu       sync.Mutex
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		result, aiErr, err := e.scorer.prioritizeDetailed(ctx, &PrioritizeRequest{
			UserID:           req.UserID,
			Items:            req.Items,
			AvailableMinutes: req.AvailableMinutes,
			Preferences:      req.Preferences,
		})
		record(err)
		analysis.Prioritization = result
		analysis.AIError = aiErr
	}()
	go func() {
		defer wg.Done()
		patterns, err := e.patterns.DetectPatterns(ctx, req.UserID, req.Items)
		record(err)
		analysis.Patterns = patterns
	}()
	go func() {
		defer wg.Done()
		conflicts, err := e.conflicts.DetectConflicts(ctx, &ConflictRequest{
			UserID:      req.UserID,
			Items:       req.Items,
			NewItem:     req.NewItem,
			WindowStart: req.WindowStart,
			WindowEnd:   req.WindowEnd,
		})
		record(err)
		analysis.Conflicts = conflicts
	}()
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return &analysis, nil
}
