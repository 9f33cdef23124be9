package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"ruralsite/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// AssetRetrier is the cleanup service the handlers drive.
type AssetRetrier interface {
	Retry(ctx context.Context, handle string) error
	Sweep(ctx context.Context, maxAttempts int) (cleared, remaining int, err error)
}

// TaskHandler processes background tasks.
type TaskHandler struct {
	cleanup     AssetRetrier
	maxAttempts int
	logger      *logger.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(cleanup AssetRetrier, maxAttempts int) *TaskHandler {
	return &TaskHandler{
		cleanup:     cleanup,
		maxAttempts: maxAttempts,
		logger:      logger.New("task_handler"),
	}
}

// HandleAssetDelete retries one stranded asset. Returning an error lets
// asynq back off and retry.
func (h *TaskHandler) HandleAssetDelete(ctx context.Context, t *asynq.Task) error {
	var p AssetDeletePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("invalid asset delete payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Handle == "" {
		return fmt.Errorf("asset delete payload without handle: %w", asynq.SkipRetry)
	}
	if err := h.cleanup.Retry(ctx, p.Handle); err != nil {
		return h.logger.Error("Retry of %s failed", err, p.Handle)
	}
	return nil
}

// HandleStrandedSweep retries everything still pending.
func (h *TaskHandler) HandleStrandedSweep(ctx context.Context, _ *asynq.Task) error {
	cleared, remaining, err := h.cleanup.Sweep(ctx, h.maxAttempts)
	if err != nil {
		return h.logger.Error("Stranded asset sweep failed", err)
	}
	if cleared > 0 || remaining > 0 {
		h.logger.Info("Stranded asset sweep cleared %d, %d remaining", cleared, remaining)
	}
	return nil
}

// Mux routes task types to handlers.
func (h *TaskHandler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeAssetDelete, h.HandleAssetDelete)
	mux.HandleFunc(TaskTypeStrandedSweep, h.HandleStrandedSweep)
	return mux
}
