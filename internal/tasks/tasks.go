package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeSessionCleanup = "session:cleanup"
)

// SessionCleanupPayload names what triggered a cleanup run. It holds no
// timestamps: asynq.Unique dedupes on type and payload, so two triggers of
// the same kind must produce identical bytes.
type SessionCleanupPayload struct {
	Trigger string `json:"trigger"`
}

// NewSessionCleanupTask creates a task that deletes expired sessions
func NewSessionCleanupTask(trigger string) (*asynq.Task, error) {
	payload, err := json.Marshal(SessionCleanupPayload{Trigger: trigger})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSessionCleanup, payload), nil
}

// ParseSessionCleanupPayload parses task payload from Asynq task
func ParseSessionCleanupPayload(task *asynq.Task) (SessionCleanupPayload, error) {
	var payload SessionCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
