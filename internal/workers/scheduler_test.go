package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/guilhermexp/zenith-tasks/internal/queue"
)

// mockActiveUserSource is a mock implementation of ActiveUserSource
type mockActiveUserSource struct {
	userIDs []uuid.UUID
	err     error
}

func (m *mockActiveUserSource) GetActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.userIDs, nil
}

var _ ActiveUserSource = (*mockActiveUserSource)(nil)

func TestScheduler_ScheduleAnalysisJobs(t *testing.T) {
	t.Parallel()

	t.Run("two jobs per active user", func(t *testing.T) {
		t.Parallel()

		users := &mockActiveUserSource{userIDs: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}}
		jobQueue := &mockJobQueue{}
		scheduler := NewScheduler(jobQueue, users, nil)

		if err := scheduler.ScheduleAnalysisJobs(context.Background()); err != nil {
			t.Fatalf("ScheduleAnalysisJobs() error = %v", err)
		}

		if len(jobQueue.enqueued) != 6 {
			t.Fatalf("enqueued %d jobs, want 6 (morning and evening per user)", len(jobQueue.enqueued))
		}
		for _, job := range jobQueue.enqueued {
			if job.Type != queue.JobTypeUserAnalysis {
				t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeUserAnalysis)
			}
			if job.NotBefore == nil {
				t.Error("scheduled job must carry NotBefore")
				continue
			}
			if !job.NotBefore.After(time.Now()) {
				t.Errorf("NotBefore = %v, want a future time", job.NotBefore)
			}
			if job.NotAfter == nil {
				t.Error("scheduled job must carry NotAfter")
				continue
			}
			if got := job.NotAfter.Sub(*job.NotBefore); got != 24*time.Hour {
				t.Errorf("job window = %v, want 24h", got)
			}
		}
	})

	t.Run("no active users schedules nothing", func(t *testing.T) {
		t.Parallel()

		jobQueue := &mockJobQueue{}
		scheduler := NewScheduler(jobQueue, &mockActiveUserSource{}, nil)

		if err := scheduler.ScheduleAnalysisJobs(context.Background()); err != nil {
			t.Fatalf("ScheduleAnalysisJobs() error = %v", err)
		}
		if len(jobQueue.enqueued) != 0 {
			t.Errorf("enqueued %d jobs, want 0", len(jobQueue.enqueued))
		}
	})

	t.Run("user lookup failure surfaces", func(t *testing.T) {
		t.Parallel()

		users := &mockActiveUserSource{err: errors.New("database down")}
		scheduler := NewScheduler(&mockJobQueue{}, users, nil)

		if err := scheduler.ScheduleAnalysisJobs(context.Background()); err == nil {
			t.Error("expected error when user lookup fails")
		}
	})

	t.Run("enqueue failure for one user does not stop the others", func(t *testing.T) {
		t.Parallel()

		users := &mockActiveUserSource{userIDs: []uuid.UUID{uuid.New(), uuid.New()}}
		var calls int
		jobQueue := &mockJobQueue{
			enqueueFunc: func(ctx context.Context, job *queue.Job) error {
				calls++
				if calls == 1 {
					return errors.New("channel closed")
				}
				return nil
			},
		}
		scheduler := NewScheduler(jobQueue, users, nil)

		if err := scheduler.ScheduleAnalysisJobs(context.Background()); err != nil {
			t.Fatalf("ScheduleAnalysisJobs() error = %v", err)
		}
		if calls != 4 {
			t.Errorf("enqueue called %d times, want 4", calls)
		}
	})
}
