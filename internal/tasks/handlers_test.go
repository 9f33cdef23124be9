package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruralsite/internal/utils/logger"
)

type fakeRetrier struct {
	retried   []string
	retryErr  error
	sweepMax  int
	cleared   int
	remaining int
	sweepErr  error
}

func (f *fakeRetrier) Retry(_ context.Context, handle string) error {
	f.retried = append(f.retried, handle)
	return f.retryErr
}

func (f *fakeRetrier) Sweep(_ context.Context, maxAttempts int) (int, int, error) {
	f.sweepMax = maxAttempts
	return f.cleared, f.remaining, f.sweepErr
}

func TestMain(m *testing.M) {
	restore := logger.Discard()
	code := m.Run()
	restore()
	os.Exit(code)
}

func TestNewAssetDeleteTask(t *testing.T) {
	task, err := NewAssetDeleteTask("products/abc.png", "product")
	require.NoError(t, err)

	assert.Equal(t, TaskTypeAssetDelete, task.Type())
	var p AssetDeletePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, AssetDeletePayload{Handle: "products/abc.png", Resource: "product"}, p)
	assert.Equal(t, "asset-delete:products/abc.png", AssetDeleteTaskID(p.Handle))

	_, err = NewAssetDeleteTask("", "product")
	assert.Error(t, err)
}

func TestHandleAssetDelete(t *testing.T) {
	retrier := &fakeRetrier{}
	h := NewTaskHandler(retrier, 5)
	task, err := NewAssetDeleteTask("blog/one.jpg", "blog post")
	require.NoError(t, err)

	require.NoError(t, h.HandleAssetDelete(context.Background(), task))
	assert.Equal(t, []string{"blog/one.jpg"}, retrier.retried)
}

func TestHandleAssetDeleteFailureIsRetried(t *testing.T) {
	retrier := &fakeRetrier{retryErr: errors.New("host unavailable")}
	h := NewTaskHandler(retrier, 5)
	task, err := NewAssetDeleteTask("blog/one.jpg", "")
	require.NoError(t, err)

	err = h.HandleAssetDelete(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleAssetDeleteRejectsBadPayload(t *testing.T) {
	retrier := &fakeRetrier{}
	h := NewTaskHandler(retrier, 5)

	for _, payload := range [][]byte{[]byte("{"), []byte(`{"handle":""}`)} {
		err := h.HandleAssetDelete(context.Background(), asynq.NewTask(TaskTypeAssetDelete, payload))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	}
	assert.Empty(t, retrier.retried)
}

func TestHandleStrandedSweep(t *testing.T) {
	retrier := &fakeRetrier{cleared: 2, remaining: 1}
	h := NewTaskHandler(retrier, 7)

	require.NoError(t, h.HandleStrandedSweep(context.Background(), NewStrandedSweepTask()))
	assert.Equal(t, 7, retrier.sweepMax)

	retrier.sweepErr = errors.New("db down")
	assert.Error(t, h.HandleStrandedSweep(context.Background(), NewStrandedSweepTask()))
}

func TestValidateSchedule(t *testing.T) {
	for _, expr := range []string{"@every 1h", "@hourly", "*/15 * * * *", "0 3 * * *"} {
		assert.NoError(t, ValidateSchedule(expr), expr)
	}
	for _, expr := range []string{"", "every hour", "61 * * * *", "@every nope"} {
		assert.Error(t, ValidateSchedule(expr), expr)
	}
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)

	next, err := NextRun("0 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), next)

	_, err = NextRun("bogus", from)
	assert.Error(t, err)
}
