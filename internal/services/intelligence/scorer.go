package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guilhermexp/zenith-tasks/internal/models"
	"github.com/guilhermexp/zenith-tasks/internal/services/ai"
)

const (
	// DefaultScorerAttempts bounds the AI-path retry loop
	DefaultScorerAttempts = 2
	// defaultRetryInitialInterval is the starting backoff between AI attempts
	defaultRetryInitialInterval = 500 * time.Millisecond
	// defaultRetryMaxElapsed caps the total time spent retrying the AI path
	defaultRetryMaxElapsed = 15 * time.Second
)

// PrioritizeRequest carries one prioritization call's inputs.
// AvailableMinutes <= 0 means no time budget was given.
type PrioritizeRequest struct {
	UserID           uuid.UUID
	Items            []models.Item
	AvailableMinutes int
	Preferences      string
}

// Scorer ranks a user's items by priority. The primary path delegates to
// a structured-output generation provider; any failure there falls back
// to deterministic rule-based scoring and is never surfaced to callers.
type Scorer struct {
	provider    ai.Provider
	store       AnalysisStore
	logger      *zap.Logger
	maxAttempts int
	now         func() time.Time
}

// NewScorer creates a scorer. provider may be nil, in which case every
// request takes the rule-based path directly.
func NewScorer(provider ai.Provider, store AnalysisStore, logger *zap.Logger) *Scorer {
	if store == nil {
		store = NopStores{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		provider:    provider,
		store:       store,
		logger:      logger,
		maxAttempts: DefaultScorerAttempts,
		now:         time.Now,
	}
}

// SetMaxAttempts overrides the bounded retry limit for the AI path
func (s *Scorer) SetMaxAttempts(attempts int) {
	if attempts > 0 {
		s.maxAttempts = attempts
	}
}

// Prioritize produces a PrioritizationResult covering every input item
// exactly once. The returned result is always usable: AI failures fall
// back to rule-based scoring, and storage failures are logged and
// swallowed.
func (s *Scorer) Prioritize(ctx context.Context, req *PrioritizeRequest) (*models.PrioritizationResult, error) {
	result, _, err := s.prioritizeDetailed(ctx, req)
	return result, err
}

// prioritizeDetailed is Prioritize plus the provider failure behind a
// rule-based fallback. aiErr is nil when the AI path succeeded or was
// never attempted; it never fails the call. Callers that can reschedule
// work, like the background worker, use it to decide.
func (s *Scorer) prioritizeDetailed(ctx context.Context, req *PrioritizeRequest) (result *models.PrioritizationResult, aiErr error, err error) {
	if req == nil || req.Items == nil {
		return nil, nil, ErrNilItems
	}

	now := s.now()
	result, aiErr = s.prioritizeAI(ctx, req, now)
	if result == nil {
		result = prioritizeRuleBased(req.Items, req.AvailableMinutes, now)
	}

	s.persist(ctx, req.UserID, result)
	return result, aiErr, nil
}

// aiPrioritization is the explicit contract for the provider's
// structured response; anything that does not bind to it falls back
type aiPrioritization struct {
	Tasks []struct {
		ItemID     string   `json:"item_id"`
		Score      float64  `json:"score"`
		Rank       int      `json:"rank"`
		Reasoning  []string `json:"reasoning"`
		Confidence float64  `json:"confidence"`
	} `json:"tasks"`
	Justification string  `json:"justification"`
	Confidence    float64 `json:"confidence"`
}

// prioritizeAI runs the primary path with bounded retry and exponential
// backoff. Quota exhaustion is permanent and short-circuits the retry
// loop. A nil result with the terminal error sends the caller through
// the rule-based path.
func (s *Scorer) prioritizeAI(ctx context.Context, req *PrioritizeRequest, now time.Time) (*models.PrioritizationResult, error) {
	if s.provider == nil || len(req.Items) == 0 {
		return nil, nil
	}

	genReq := &ai.StructuredRequest{
		SchemaName:   prioritizationSchemaName,
		Schema:       prioritizationSchema(),
		SystemPrompt: "You are a productivity analyst. Rank items by urgency and importance. Respond with valid JSON only.",
		Prompt:       buildPrioritizationPrompt(req.Items, req.AvailableMinutes, req.Preferences, now),
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = defaultRetryInitialInterval
	expo.MaxElapsedTime = defaultRetryMaxElapsed

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(s.maxAttempts-1)), ctx)
	resp, err := backoff.RetryWithData(func() (*ai.StructuredResponse, error) {
		resp, err := s.provider.GenerateStructured(ctx, genReq)
		if err != nil && ai.IsQuotaError(err) {
			// quota exhaustion does not clear on a quick retry
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}, policy)
	if err != nil {
		s.logger.Warn("ai_prioritization_failed_falling_back",
			zap.String("user_id", req.UserID.String()),
			zap.Int("max_attempts", s.maxAttempts),
			zap.Error(err),
		)
		return nil, err
	}

	result, err := s.validateAIResult(resp.Data, req.Items)
	if err != nil {
		s.logger.Warn("ai_prioritization_invalid_falling_back",
			zap.String("user_id", req.UserID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

// validateAIResult binds the raw structured payload to the response
// contract and normalizes it: every input item exactly once, scores and
// confidences clamped into [0,1], ranks contiguous 1..N
func (s *Scorer) validateAIResult(data json.RawMessage, items []models.Item) (*models.PrioritizationResult, error) {
	var parsed aiPrioritization
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse prioritization response: %w", err)
	}

	if len(parsed.Tasks) != len(items) {
		return nil, fmt.Errorf("response covers %d items, expected %d", len(parsed.Tasks), len(items))
	}

	expected := make(map[uuid.UUID]bool, len(items))
	for i := range items {
		expected[items[i].ID] = false
	}

	tasks := make([]models.PrioritizedTask, 0, len(parsed.Tasks))
	for _, t := range parsed.Tasks {
		id, err := uuid.Parse(t.ItemID)
		if err != nil {
			return nil, fmt.Errorf("response contains invalid item id %q", t.ItemID)
		}
		seen, ok := expected[id]
		if !ok {
			return nil, fmt.Errorf("response contains unknown item %s", id)
		}
		if seen {
			return nil, fmt.Errorf("response contains item %s twice", id)
		}
		expected[id] = true

		reasoning := t.Reasoning
		if len(reasoning) == 0 {
			reasoning = []string{"Ranked by the analysis model"}
		}
		tasks = append(tasks, models.PrioritizedTask{
			ItemID:     id,
			Score:      models.Clamp01(t.Score),
			Rank:       t.Rank,
			Reasoning:  reasoning,
			Confidence: models.Clamp01(t.Confidence),
		})
	}

	// Normalize ranks: order by the model's ranking, then reassign 1..N
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Rank < tasks[j].Rank
	})
	for i := range tasks {
		tasks[i].Rank = i + 1
	}

	justification := parsed.Justification
	if justification == "" {
		justification = buildJustification(tasks)
	}

	return &models.PrioritizationResult{
		Tasks:         tasks,
		Justification: justification,
		Confidence:    models.Clamp01(parsed.Confidence),
	}, nil
}

// persist archives one analysis record per prioritized item. Failures
// are logged and swallowed; losing a record must not block the result.
func (s *Scorer) persist(ctx context.Context, userID uuid.UUID, result *models.PrioritizationResult) {
	for i := range result.Tasks {
		task := &result.Tasks[i]
		if err := s.store.StoreAnalysis(ctx, userID, task); err != nil {
			s.logger.Warn("failed_to_store_analysis",
				zap.String("user_id", userID.String()),
				zap.String("item_id", task.ItemID.String()),
				zap.Error(err),
			)
		}
	}
}
