package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guilhermexp/zenith-tasks/internal/queue"
)

// ActiveUserSource lists the users whose items warrant periodic analysis
type ActiveUserSource interface {
	GetActiveUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Scheduler enqueues periodic analysis jobs for active users
type Scheduler struct {
	jobQueue queue.JobQueue
	users    ActiveUserSource
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(jobQueue queue.JobQueue, users ActiveUserSource, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobQueue: jobQueue,
		users:    users,
		logger:   logger,
	}
}

// ScheduleAnalysisJobs creates analysis jobs for active users twice a day,
// timed so the morning run lands before the workday and the evening run
// catches the day's changes
func (s *Scheduler) ScheduleAnalysisJobs(ctx context.Context) error {
	now := time.Now()
	nextMorning := time.Date(now.Year(), now.Month(), now.Day(), 8, 0, 0, 0, now.Location())
	nextEvening := time.Date(now.Year(), now.Month(), now.Day(), 20, 0, 0, 0, now.Location())

	// If we're past morning time today, schedule for tomorrow
	if now.After(nextMorning) {
		nextMorning = nextMorning.Add(24 * time.Hour)
	}

	// If we're past evening time today, schedule for tomorrow
	if now.After(nextEvening) {
		nextEvening = nextEvening.Add(24 * time.Hour)
	}

	activeUsers, err := s.users.GetActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get active users: %w", err)
	}

	for _, userID := range activeUsers {
		if err := s.createAnalysisJob(ctx, userID, nextMorning); err != nil {
			s.logger.Warn("failed_to_schedule_morning_analysis_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			// Continue with other users
		}

		if err := s.createAnalysisJob(ctx, userID, nextEvening); err != nil {
			s.logger.Warn("failed_to_schedule_evening_analysis_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			// Continue with other users
		}
	}

	s.logger.Info("scheduled_analysis_jobs",
		zap.Int("user_count", len(activeUsers)),
		zap.Time("next_morning", nextMorning),
		zap.Time("next_evening", nextEvening),
	)

	return nil
}

// createAnalysisJob creates a delayed analysis job for a user
func (s *Scheduler) createAnalysisJob(ctx context.Context, userID uuid.UUID, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeUserAnalysis, userID, nil)
	job.NotBefore = &notBefore

	// Stale scheduled runs are worthless after the next one lands
	notAfter := notBefore.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	return nil
}
