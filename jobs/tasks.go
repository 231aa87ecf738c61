package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSettlementWarmup recomputes month overviews into the Redis cache.
	TaskSettlementWarmup = "settlement:warmup"
)

// SettlementWarmupPayload selects the months to recompute. An empty list
// means every month with payment activity.
type SettlementWarmupPayload struct {
	Months []string `json:"months,omitempty"`
}

// NewSettlementWarmupTask constructs an Asynq task.
func NewSettlementWarmupTask(payload SettlementWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementWarmup, data), nil
}
