package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task Types
const (
	// TaskTypeAssetDelete retries the delete of one stranded asset.
	TaskTypeAssetDelete = "asset:delete"
	// TaskTypeStrandedSweep retries every stranded asset still below the limit.
	TaskTypeStrandedSweep = "asset:sweep"
)

// Task Queues
const (
	QueueDefault = "default"
	QueueLow     = "low" // For background tasks like cleanup
)

// Task Timeouts
const (
	TimeoutShort  = 1 * time.Minute
	TimeoutMedium = 5 * time.Minute
)

// Task Retry Settings
const (
	RetryMax     = 5
	RetryDefault = 3
)

// AssetDeletePayload identifies the stranded asset to delete.
type AssetDeletePayload struct {
	Handle   string `json:"handle"`
	Resource string `json:"resource,omitempty"`
}

// NewAssetDeleteTask builds a delete task. The task id is derived from the
// handle so a second enqueue for the same asset is rejected by asynq.
func NewAssetDeleteTask(handle, resource string) (*asynq.Task, error) {
	if handle == "" {
		return nil, fmt.Errorf("asset delete task needs a handle")
	}
	payload, err := json.Marshal(AssetDeletePayload{Handle: handle, Resource: resource})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAssetDelete, payload,
		asynq.TaskID(AssetDeleteTaskID(handle)),
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryMax),
		asynq.Timeout(TimeoutShort),
	), nil
}

func AssetDeleteTaskID(handle string) string {
	return "asset-delete:" + handle
}

// NewStrandedSweepTask builds the periodic sweep task.
func NewStrandedSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeStrandedSweep, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(RetryDefault),
		asynq.Timeout(TimeoutMedium),
	)
}
