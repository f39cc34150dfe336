package workers

import (
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/partyline-dev/partyline/internal/tasks"
)

// Enqueuer is the part of asynq.Client the scheduler needs
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StartCleanupScheduler enqueues a session cleanup on the given cron
// schedule (standard 5-field format). Stop the returned cron to end it.
func StartCleanupScheduler(client Enqueuer, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		enqueueSessionCleanup(client, "schedule", logger)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	// Run once on startup, then on schedule
	enqueueSessionCleanup(client, "startup", logger)

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("Session cleanup scheduler started")
	return c, nil
}

func enqueueSessionCleanup(client Enqueuer, trigger string, logger zerolog.Logger) {
	task, err := tasks.NewSessionCleanupTask(trigger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create session cleanup task")
		return
	}

	// Unique keeps overlapping triggers from stacking up behind a slow run
	_, err = client.Enqueue(task, asynq.Unique(10*time.Minute), asynq.Queue("low"), asynq.Timeout(5*time.Minute))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			logger.Debug().Str("trigger", trigger).Msg("Session cleanup already pending")
			return
		}
		logger.Error().Err(err).Str("trigger", trigger).Msg("Failed to enqueue session cleanup")
		return
	}

	logger.Debug().Str("trigger", trigger).Msg("Session cleanup enqueued")
}
