package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Типы фоновых задач.
const (
	TypePushUser            = "push.user"
	TypeReputationRecompute = "reputation.recompute"
)

// ErrQueueFull возвращается, когда буфер очереди переполнен.
var ErrQueueFull = errors.New("outbox: queue is full")

// Task единица побочной работы, выполняемой после фиксации транзакции.
type Task struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewTask сериализует payload в задачу.
func NewTask(taskType string, payload interface{}) (Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Task{}, fmt.Errorf("outbox: marshal %s payload: %w", taskType, err)
	}
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Decode разбирает payload задачи.
func (t Task) Decode(v interface{}) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("outbox: decode %s payload: %w", t.Type, err)
	}
	return nil
}

// Queue хранилище задач между запросом и воркерами.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
	Close() error
}

// PushUserPayload уведомление одному пользователю.
type PushUserPayload struct {
	UserID uuid.UUID         `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// ReputationPayload пересчёт репутации пользователей.
type ReputationPayload struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}
