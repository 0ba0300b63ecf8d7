package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/guilhermexp/zenith-tasks/internal/models"
	"github.com/guilhermexp/zenith-tasks/internal/queue"
	"github.com/guilhermexp/zenith-tasks/internal/services/ai"
	"github.com/guilhermexp/zenith-tasks/internal/services/intelligence"
)

// mockItemSource is a mock implementation of ItemSource
type mockItemSource struct {
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*models.Item, error)
	getByUserIDFunc func(ctx context.Context, userID uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error)
}

func (m *mockItemSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockItemSource) GetByUserID(ctx context.Context, userID uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
	if m.getByUserIDFunc != nil {
		return m.getByUserIDFunc(ctx, userID, itemType, completed)
	}
	return []models.Item{}, nil
}

// Ensure mock implements interface
var _ ItemSource = (*mockItemSource)(nil)

// mockSnapshotCache records cached analyses
type mockSnapshotCache struct {
	mu       sync.Mutex
	setCount int
	err      error
}

func (m *mockSnapshotCache) SetLatest(ctx context.Context, userID uuid.UUID, analysis any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.setCount++
	return nil
}

var _ SnapshotCache = (*mockSnapshotCache)(nil)

// mockJobQueue is a mock implementation of queue.JobQueue
type mockJobQueue struct {
	mu          sync.Mutex
	enqueued    []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Dequeue(ctx context.Context) (*queue.Message, error) {
	return nil, nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

var _ queue.JobQueue = (*mockJobQueue)(nil)

// mockMessage is a mock implementation of queue.MessageInterface
type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

// Ensure mock implements interface
var _ queue.MessageInterface = (*mockMessage)(nil)

func testEngine() *intelligence.Engine {
	return engineWithProvider(nil)
}

func engineWithProvider(provider ai.Provider) *intelligence.Engine {
	return intelligence.NewEngine(
		intelligence.NewScorer(provider, nil, nil),
		intelligence.NewPatternDetector(nil, intelligence.DefaultPatternConfig(), nil),
		intelligence.NewConflictDetector(nil, nil),
	)
}

// exhaustedProvider reports spent quota on every generation call
type exhaustedProvider struct{}

func (exhaustedProvider) GenerateStructured(ctx context.Context, req *ai.StructuredRequest) (*ai.StructuredResponse, error) {
	return nil, &ai.APIError{
		StatusCode:  429,
		Type:        "insufficient_quota",
		Code:        "insufficient_quota",
		Message:     "quota exhausted",
		IsPermanent: true,
	}
}

var _ ai.Provider = exhaustedProvider{}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestAnalysisWorker_ProcessUserAnalysisJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("successful analysis caches the snapshot", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return []models.Item{
					{ID: uuid.New(), UserID: id, Title: "write report", Type: models.ItemTypeTask, CreatedAt: time.Now()},
				}, nil
			},
		}
		cache := &mockSnapshotCache{}
		worker := NewAnalysisWorker(testEngine(), items, cache, &mockJobQueue{})

		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		if err := worker.ProcessUserAnalysisJob(context.Background(), job); err != nil {
			t.Fatalf("ProcessUserAnalysisJob() error = %v", err)
		}
		if cache.setCount != 1 {
			t.Errorf("cached %d snapshots, want 1", cache.setCount)
		}
	})

	t.Run("user with no items gets an empty analysis", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return nil, nil
			},
		}
		worker := NewAnalysisWorker(testEngine(), items, nil, &mockJobQueue{})

		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		if err := worker.ProcessUserAnalysisJob(context.Background(), job); err != nil {
			t.Errorf("empty item set must not error, got %v", err)
		}
	})

	t.Run("item load failure surfaces", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return nil, errors.New("database down")
			},
		}
		worker := NewAnalysisWorker(testEngine(), items, nil, &mockJobQueue{})

		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		if err := worker.ProcessUserAnalysisJob(context.Background(), job); err == nil {
			t.Error("expected error when item load fails")
		}
	})

	t.Run("cache failure does not fail the job", func(t *testing.T) {
		t.Parallel()

		cache := &mockSnapshotCache{err: errors.New("redis down")}
		worker := NewAnalysisWorker(testEngine(), &mockItemSource{}, cache, &mockJobQueue{})

		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		if err := worker.ProcessUserAnalysisJob(context.Background(), job); err != nil {
			t.Errorf("cache failure must be swallowed, got %v", err)
		}
	})
}

func TestAnalysisWorker_ProcessItemAnalysisJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	itemID := uuid.New()

	t.Run("missing item id", func(t *testing.T) {
		t.Parallel()

		worker := NewAnalysisWorker(testEngine(), &mockItemSource{}, nil, &mockJobQueue{})
		job := queue.NewJob(queue.JobTypeItemAnalysis, userID, nil)

		if err := worker.ProcessItemAnalysisJob(context.Background(), job); err == nil {
			t.Error("expected error for job without item id")
		}
	})

	t.Run("item belonging to another user is rejected", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Item, error) {
				return &models.Item{ID: id, UserID: uuid.New(), Title: "foreign", Type: models.ItemTypeTask}, nil
			},
		}
		worker := NewAnalysisWorker(testEngine(), items, nil, &mockJobQueue{})
		job := queue.NewJob(queue.JobTypeItemAnalysis, userID, &itemID)

		if err := worker.ProcessItemAnalysisJob(context.Background(), job); err == nil {
			t.Error("expected error for item owned by another user")
		}
	})

	t.Run("candidate item is checked against the others", func(t *testing.T) {
		t.Parallel()

		day := time.Now().Truncate(24 * time.Hour).Add(48 * time.Hour)
		existing := models.Item{
			ID:        uuid.New(),
			UserID:    userID,
			Title:     "standup",
			Type:      models.ItemTypeMeeting,
			StartTime: timePtr(day.Add(10 * time.Hour)),
			EndTime:   timePtr(day.Add(11 * time.Hour)),
			CreatedAt: time.Now(),
		}
		candidate := models.Item{
			ID:        itemID,
			UserID:    userID,
			Title:     "interview",
			Type:      models.ItemTypeMeeting,
			StartTime: timePtr(day.Add(10*time.Hour + 30*time.Minute)),
			EndTime:   timePtr(day.Add(11*time.Hour + 30*time.Minute)),
			CreatedAt: time.Now(),
		}

		items := &mockItemSource{
			getByIDFunc: func(ctx context.Context, id uuid.UUID) (*models.Item, error) {
				item := candidate
				return &item, nil
			},
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return []models.Item{existing, candidate}, nil
			},
		}
		worker := NewAnalysisWorker(testEngine(), items, nil, &mockJobQueue{})
		job := queue.NewJob(queue.JobTypeItemAnalysis, userID, &itemID)

		if err := worker.ProcessItemAnalysisJob(context.Background(), job); err != nil {
			t.Errorf("ProcessItemAnalysisJob() error = %v", err)
		}
	})
}

func TestAnalysisWorker_ProcessJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("successful job is acked", func(t *testing.T) {
		t.Parallel()

		worker := NewAnalysisWorker(testEngine(), &mockItemSource{}, nil, &mockJobQueue{})
		msg := &mockMessage{job: queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)}

		if err := worker.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("ProcessJob() error = %v", err)
		}
		if !msg.acked {
			t.Error("successful job must be acked")
		}
	})

	t.Run("unknown job type goes to DLQ", func(t *testing.T) {
		t.Parallel()

		worker := NewAnalysisWorker(testEngine(), &mockItemSource{}, nil, &mockJobQueue{})
		msg := &mockMessage{job: queue.NewJob(queue.JobType("mystery"), userID, nil)}

		if err := worker.ProcessJob(context.Background(), msg); err == nil {
			t.Error("unknown job type must error")
		}
		if !msg.nacked || msg.requeue {
			t.Error("unknown job type must be nacked without requeue")
		}
	})

	t.Run("job not ready yet is skipped", func(t *testing.T) {
		t.Parallel()

		worker := NewAnalysisWorker(testEngine(), &mockItemSource{}, nil, &mockJobQueue{})
		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		job.NotBefore = timePtr(time.Now().Add(time.Hour))
		msg := &mockMessage{job: job}

		if err := worker.ProcessJob(context.Background(), msg); err != nil {
			t.Errorf("not-ready job must be skipped silently, got %v", err)
		}
	})

	t.Run("rate limited job is re-enqueued with delay", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return nil, errors.New("rate limit exceeded")
			},
		}
		jobQueue := &mockJobQueue{}
		worker := NewAnalysisWorker(testEngine(), items, nil, jobQueue)
		msg := &mockMessage{job: queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)}

		if err := worker.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("re-enqueued rate limited job must not error, got %v", err)
		}
		if !msg.acked {
			t.Error("rate limited job must be acked before re-enqueueing")
		}
		if len(jobQueue.enqueued) != 1 {
			t.Fatalf("enqueued %d jobs, want 1", len(jobQueue.enqueued))
		}
		retry := jobQueue.enqueued[0]
		if retry.NotBefore == nil || !retry.NotBefore.After(time.Now()) {
			t.Error("retry must carry a future NotBefore")
		}
		if retry.RetryCount != 1 {
			t.Errorf("retry count = %d, want 1", retry.RetryCount)
		}
	})

	t.Run("exhausted provider quota caches the fallback and reschedules", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return []models.Item{
					{ID: uuid.New(), UserID: id, Title: "write report", Type: models.ItemTypeTask, CreatedAt: time.Now()},
				}, nil
			},
		}
		cache := &mockSnapshotCache{}
		jobQueue := &mockJobQueue{}
		worker := NewAnalysisWorker(engineWithProvider(exhaustedProvider{}), items, cache, jobQueue)
		msg := &mockMessage{job: queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)}

		if err := worker.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("re-enqueued quota job must not error, got %v", err)
		}
		if cache.setCount != 1 {
			t.Errorf("rule-based snapshot must still be cached, cached %d", cache.setCount)
		}
		if !msg.acked {
			t.Error("quota job must be acked before re-enqueueing")
		}
		if len(jobQueue.enqueued) != 1 {
			t.Fatalf("enqueued %d jobs, want 1", len(jobQueue.enqueued))
		}
		retry := jobQueue.enqueued[0]
		// Quota delays start at one hour
		if retry.NotBefore == nil || !retry.NotBefore.After(time.Now().Add(30*time.Minute)) {
			t.Error("quota retry must carry a NotBefore well in the future")
		}
		if retry.RetryCount != 1 {
			t.Errorf("retry count = %d, want 1", retry.RetryCount)
		}
	})

	t.Run("generic failure is nacked with requeue until retries run out", func(t *testing.T) {
		t.Parallel()

		items := &mockItemSource{
			getByUserIDFunc: func(ctx context.Context, id uuid.UUID, itemType *models.ItemType, completed *bool) ([]models.Item, error) {
				return nil, errors.New("database down")
			},
		}
		worker := NewAnalysisWorker(testEngine(), items, nil, &mockJobQueue{})

		job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		msg := &mockMessage{job: job}
		if err := worker.ProcessJob(context.Background(), msg); err == nil {
			t.Error("failing job must surface an error")
		}
		if !msg.nacked || !msg.requeue {
			t.Error("retryable failure must be nacked with requeue")
		}

		exhausted := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
		exhausted.RetryCount = exhausted.MaxRetries
		msg = &mockMessage{job: exhausted}
		if err := worker.ProcessJob(context.Background(), msg); err == nil {
			t.Error("exhausted job must surface an error")
		}
		if !msg.nacked || msg.requeue {
			t.Error("exhausted job must be nacked without requeue")
		}
	})
}

func TestAvailableMinutes(t *testing.T) {
	t.Parallel()

	job := queue.NewJob(queue.JobTypeUserAnalysis, uuid.New(), nil)
	if got := availableMinutes(job); got != defaultAvailableMinutes {
		t.Errorf("availableMinutes() = %d, want default %d", got, defaultAvailableMinutes)
	}

	job.Metadata["available_minutes"] = float64(240)
	if got := availableMinutes(job); got != 240 {
		t.Errorf("availableMinutes() = %d, want 240", got)
	}

	job.Metadata["available_minutes"] = "soon"
	if got := availableMinutes(job); got != defaultAvailableMinutes {
		t.Errorf("availableMinutes() = %d, want default for bad metadata", got)
	}
}
