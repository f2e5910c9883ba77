package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	WarmRegionsTaskName  = "regions:warm"
	WarmRegionsQueueName = "regions"

	warmRegionsUniqueFor = time.Minute
)

type WarmRegions struct {
	Reason string `json:"reason"`
}

// NewWarmRegionsTask builds a warm task. Duplicates enqueued within a minute are dropped.
func NewWarmRegionsTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmRegions{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		WarmRegionsTaskName,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(WarmRegionsQueueName),
		asynq.Unique(warmRegionsUniqueFor),
	), nil
}
