package tasks

import (
	"context"
	"errors"

	"ruralsite/internal/config"
	"ruralsite/internal/events"
	"ruralsite/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the task client uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is the part of *asynq.Inspector the task client uses.
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

// TaskClient enqueues background work on Redis.
type TaskClient struct {
	client    Enqueuer
	inspector TaskInspector
	closers   []func() error
	logger    *logger.Logger
}

// RedisOpt converts the Redis settings into asynq connection options.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewTaskClient creates a new TaskClient with the given Redis configuration
func NewTaskClient(cfg config.RedisConfig) *TaskClient {
	client := asynq.NewClient(RedisOpt(cfg))
	inspector := asynq.NewInspector(RedisOpt(cfg))
	c := NewTaskClientWith(client, inspector)
	c.closers = []func() error{client.Close, inspector.Close}
	return c
}

// NewTaskClientWith builds a client over existing queue handles.
func NewTaskClientWith(client Enqueuer, inspector TaskInspector) *TaskClient {
	return &TaskClient{client: client, inspector: inspector, logger: logger.New("TASKS")}
}

// EnqueueAssetDelete schedules a retry for a stranded asset. Enqueueing the
// same handle twice is not an error. A task for the handle that already ran
// out of retries still holds its id, so it is deleted and the asset queued
// again.
func (c *TaskClient) EnqueueAssetDelete(ctx context.Context, handle, resource string) error {
	task, err := NewAssetDeleteTask(handle, resource)
	if err != nil {
		return err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		if !c.releaseFinished(handle) {
			c.logger.Debug("Asset delete for %s already queued", handle)
			return nil
		}
		info, err = c.client.EnqueueContext(ctx, task)
	}
	if err != nil {
		return c.logger.Error("Failed to enqueue asset delete for %s", err, handle)
	}
	c.logger.Info("Queued asset delete %s on %s", info.ID, info.Queue)
	return nil
}

// releaseFinished deletes an archived or completed task for handle and
// reports whether its id is free again.
func (c *TaskClient) releaseFinished(handle string) bool {
	if c.inspector == nil {
		return false
	}
	id := AssetDeleteTaskID(handle)
	existing, err := c.inspector.GetTaskInfo(QueueLow, id)
	if err != nil {
		c.logger.Warn("Cannot inspect asset delete %s: %v", id, err)
		return false
	}
	if existing.State != asynq.TaskStateArchived && existing.State != asynq.TaskStateCompleted {
		return false
	}
	if err := c.inspector.DeleteTask(QueueLow, id); err != nil {
		c.logger.Warn("Cannot release asset delete %s: %v", id, err)
		return false
	}
	return true
}

// OnStranded is an event handler that queues a retry for every stranded asset.
func (c *TaskClient) OnStranded(data interface{}) {
	evt, ok := data.(events.StrandedEvent)
	if !ok {
		return
	}
	_ = c.EnqueueAssetDelete(context.Background(), evt.Handle, evt.Resource)
}

// Close closes the underlying asynq client and inspector.
func (c *TaskClient) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
