package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/guilhermexp/zenith-tasks/internal/models"
	"github.com/guilhermexp/zenith-tasks/internal/queue"
	"github.com/guilhermexp/zenith-tasks/internal/services/ai"
	"github.com/guilhermexp/zenith-tasks/internal/services/intelligence"
)

// defaultAvailableMinutes is assumed when a job doesn't say how much
// time the user has
const defaultAvailableMinutes = 480

// ItemSource loads the item snapshots analysis jobs run over
type ItemSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetByUserID(ctx context.Context, userID uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error)
}

// SnapshotCache stores grouped analysis results for fast reads
type SnapshotCache interface {
	SetLatest(ctx context.Context, userID uuid.UUID, analysis any) error
}

// AnalysisWorker processes analysis jobs
type AnalysisWorker struct {
	engine   *intelligence.Engine
	items    ItemSource
	cache    SnapshotCache  // optional
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
}

// NewAnalysisWorker creates a new analysis worker
func NewAnalysisWorker(
	engine *intelligence.Engine,
	items ItemSource,
	cache SnapshotCache,
	jobQueue queue.JobQueue,
) *AnalysisWorker {
	return &AnalysisWorker{
		engine:   engine,
		items:    items,
		cache:    cache,
		jobQueue: jobQueue,
	}
}

// ProcessUserAnalysisJob runs the full analysis engine for one user and
// caches the grouped result
func (w *AnalysisWorker) ProcessUserAnalysisJob(ctx context.Context, job *queue.Job) error {
	items, err := w.items.GetByUserID(ctx, job.UserID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	if items == nil {
		// A user with no rows still gets a valid, empty analysis
		items = []models.Item{}
	}

	analysis, err := w.engine.Analyze(ctx, &intelligence.AnalyzeRequest{
		UserID:           job.UserID,
		Items:            items,
		AvailableMinutes: availableMinutes(job),
	})
	if err != nil {
		return fmt.Errorf("failed to analyze items: %w", err)
	}

	if w.cache != nil {
		if err := w.cache.SetLatest(ctx, job.UserID, analysis); err != nil {
			log.Printf("Failed to cache analysis for user %s: %v", job.UserID, err)
			// Analysis itself succeeded; a stale cache is acceptable
		}
	}

	log.Printf("Analyzed user %s: %d tasks prioritized, %d patterns, %d conflicts",
		job.UserID, len(analysis.Prioritization.Tasks), len(analysis.Patterns), len(analysis.Conflicts))

	// The rule-based snapshot is cached either way; quota and rate-limit
	// failures on the AI path surface here so the job gets rescheduled
	// for an AI-quality rerun.
	if aiErr := analysis.AIError; ai.IsQuotaError(aiErr) || ai.IsRateLimitError(aiErr) {
		return fmt.Errorf("analysis degraded, provider unavailable: %w", aiErr)
	}
	return nil
}

// ProcessItemAnalysisJob checks one new or changed item against the rest
// of the user's calendar
func (w *AnalysisWorker) ProcessItemAnalysisJob(ctx context.Context, job *queue.Job) error {
	if job.ItemID == nil {
		return fmt.Errorf("item_id is required for item analysis job")
	}

	item, err := w.items.GetByID(ctx, *job.ItemID)
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}

	// Verify item belongs to user
	if item.UserID != job.UserID {
		return fmt.Errorf("item does not belong to user")
	}

	items, err := w.items.GetByUserID(ctx, job.UserID, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}

	// Exclude the item itself; it joins the view as the candidate
	others := make([]models.Item, 0, len(items))
	for i := range items {
		if items[i].ID != item.ID {
			others = append(others, items[i])
		}
	}

	conflicts, err := w.engine.Conflicts().DetectConflicts(ctx, &intelligence.ConflictRequest{
		UserID:  job.UserID,
		Items:   others,
		NewItem: item,
	})
	if err != nil {
		return fmt.Errorf("failed to detect conflicts: %w", err)
	}

	log.Printf("Checked item %s for user %s: %d conflicts", item.ID, job.UserID, len(conflicts))
	return nil
}

// availableMinutes reads the time budget from job metadata, if present
func availableMinutes(job *queue.Job) int {
	if raw, ok := job.Metadata["available_minutes"]; ok {
		// JSON numbers decode as float64
		if minutes, ok := raw.(float64); ok && minutes > 0 {
			return int(minutes)
		}
	}
	return defaultAvailableMinutes
}

// ProcessJob processes a job based on its type
func (w *AnalysisWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeUserAnalysis:
		if err := w.ProcessUserAnalysisJob(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err, "user analysis")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeItemAnalysis:
		if err := w.ProcessItemAnalysisJob(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err, "item analysis")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with intelligent retry logic
func (w *AnalysisWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobType string) error {
	// Check if it's a quota error (should not retry immediately)
	if ai.IsQuotaError(err) {
		log.Printf("Quota exceeded for %s job %s: %v", jobType, job.ID, err)

		// For quota errors, re-enqueue with long delay (1 hour minimum)
		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		log.Printf("Re-enqueueing %s job %s with NotBefore=%v (quota exhausted, retry in %v)",
			jobType, job.ID, notBefore, retryDelay)

		delayedJob := delayedRetry(job, notBefore)

		// Ack the current message
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		// Re-enqueue with delay using NotBefore (RabbitMQ delayed exchange will handle this)
		if w.jobQueue != nil {
			if enqueueErr := w.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Successfully re-enqueued %s job %s for retry at %v", jobType, job.ID, notBefore)
			return nil // Successfully handled
		}

		// If no queue access, nack without requeue to prevent spam
		log.Printf("Warning: No queue access, cannot re-enqueue job with delay. Sending to DLQ.")
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack quota error job: %v", nackErr)
		}

		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Check if it's a rate limit error (should retry with backoff)
	if ai.IsRateLimitError(err) {
		log.Printf("Rate limited for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		// For rate limits, re-enqueue with delay using NotBefore
		if job.CanRetry() && w.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := delayedRetry(job, notBefore)

			// Ack the current message
			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack rate limited job: %v", ackErr)
			}

			if enqueueErr := w.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				// Fall back to nack with requeue
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Printf("Failed to nack rate limited job: %v", nackErr)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Rate limited: re-enqueued %s job %s for retry at %v (delay: %v)",
				jobType, job.ID, notBefore, retryDelay)
			return nil // Successfully handled
		}

		// Fallback: nack with requeue (immediate retry)
		if job.CanRetry() {
			job.IncrementRetry()
			log.Printf("Rate limit: will retry job %s immediately (attempt %d/%d)",
				job.ID, job.RetryCount, job.MaxRetries)
			if nackErr := msg.Nack(true); nackErr != nil {
				log.Printf("Failed to nack rate limited job: %v", nackErr)
			}
			// Return error to signal worker to wait before processing next job
			return fmt.Errorf("rate limited (will retry): %w", err)
		}
	}

	// For other errors, use standard retry logic
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("%s job %s failed (attempt %d/%d): %v, will retry", jobType, job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// delayedRetry copies a job for re-enqueueing at a later time
func delayedRetry(job *queue.Job, notBefore time.Time) *queue.Job {
	return &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		ItemID:     job.ItemID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}
}
