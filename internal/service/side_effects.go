package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
)

// TaskEnqueuer ставит фоновую задачу в очередь.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}) error
}

// sideEffects побочные действия после фиксации транзакции.
// Ошибка постановки в очередь логируется и не влияет на ответ клиенту.
type sideEffects struct {
	tasks TaskEnqueuer
	log   *logrus.Entry
}

func newSideEffects(tasks TaskEnqueuer, component string) sideEffects {
	return sideEffects{tasks: tasks, log: logger.WithComponent(component)}
}

func (e sideEffects) push(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	if e.tasks == nil {
		return
	}
	payload := outbox.PushUserPayload{UserID: userID, Title: title, Body: body, Data: data}
	if err := e.tasks.Enqueue(ctx, outbox.TypePushUser, payload); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Error("не удалось поставить push в очередь")
	}
}

func (e sideEffects) recomputeReputation(ctx context.Context, userIDs ...uuid.UUID) {
	if e.tasks == nil || len(userIDs) == 0 {
		return
	}
	if err := e.tasks.Enqueue(ctx, outbox.TypeReputationRecompute, outbox.ReputationPayload{UserIDs: userIDs}); err != nil {
		e.log.WithError(err).WithField("user_ids", userIDs).Error("не удалось поставить пересчёт репутации в очередь")
	}
}
