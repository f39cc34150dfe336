package workers

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/partyline-dev/partyline/internal/tasks"
)

// SessionPurger deletes sessions past their expiry
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// HandleSessionCleanup deletes expired sessions
func HandleSessionCleanup(ctx context.Context, t *asynq.Task, purger SessionPurger, logger zerolog.Logger) error {
	payload, err := tasks.ParseSessionCleanupPayload(t)
	if err != nil {
		// A malformed payload will never parse; don't retry it
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	n, err := purger.PurgeExpiredSessions(ctx)
	if err != nil {
		logger.Error().Err(err).Str("trigger", payload.Trigger).Msg("Session cleanup failed")
		return err
	}

	logger.Info().
		Int64("deleted", n).
		Str("trigger", payload.Trigger).
		Msg("Expired sessions purged")
	return nil
}
