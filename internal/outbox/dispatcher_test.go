package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask_RoundTripsPayload(t *testing.T) {
	userID := uuid.New()
	task, err := NewTask(TypePushUser, PushUserPayload{UserID: userID, Title: "Заказ завершён"})
	require.NoError(t, err)

	var got PushUserPayload
	require.NoError(t, task.Decode(&got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, TypePushUser, task.Type)
	assert.NotEmpty(t, task.ID)
}

func TestMemoryQueue_FullBufferDoesNotBlock(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Task{ID: "1"}))
	assert.ErrorIs(t, q.Enqueue(ctx, Task{ID: "2"}), ErrQueueFull)
	assert.Equal(t, 1, q.Len())
}

func TestMemoryQueue_DequeueHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcher_Backoff(t *testing.T) {
	d := NewDispatcher(NewMemoryQueue(1), DispatcherConfig{BaseBackoff: time.Second, MaxBackoff: 30 * time.Second})

	assert.Equal(t, time.Second, d.Backoff(1))
	assert.Equal(t, 2*time.Second, d.Backoff(2))
	assert.Equal(t, 16*time.Second, d.Backoff(5))
	assert.Equal(t, 30*time.Second, d.Backoff(6))
	assert.Equal(t, 30*time.Second, d.Backoff(20))
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	q := NewMemoryQueue(8)
	d := NewDispatcher(q, DispatcherConfig{Workers: 2, MaxAttempts: 5, BaseBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond})

	var calls int32
	done := make(chan struct{})
	d.Register(TypeReputationRecompute, func(ctx context.Context, task Task) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("db unavailable")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, d.Enqueue(ctx, TypeReputationRecompute, ReputationPayload{UserIDs: []uuid.UUID{uuid.New()}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried to success")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDispatcher_DropsAfterMaxAttempts(t *testing.T) {
	q := NewMemoryQueue(8)
	d := NewDispatcher(q, DispatcherConfig{Workers: 1, MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond})

	var calls int32
	d.Register(TypePushUser, func(ctx context.Context, task Task) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("fcm down")
	})

	task, err := NewTask(TypePushUser, PushUserPayload{UserID: uuid.New()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, q.Enqueue(ctx, task))
	d.Run(ctx)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	d := NewDispatcher(NewMemoryQueue(1), DispatcherConfig{MaxAttempts: 1})
	d.Register(TypePushUser, func(ctx context.Context, task Task) error {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		d.Process(context.Background(), Task{ID: "x", Type: TypePushUser})
	})
}
