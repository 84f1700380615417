package service

import (
	"context"
	"errors"

	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
)

// TaskRegistry регистрация обработчиков фоновых задач.
type TaskRegistry interface {
	Register(taskType string, h outbox.Handler)
}

// RegisterTaskHandlers подключает обработчики push и пересчёта репутации.
func RegisterTaskHandlers(registry TaskRegistry, pushes *PushService, reputation *ReputationService) {
	registry.Register(outbox.TypePushUser, pushes.HandlePushTask)
	registry.Register(outbox.TypeReputationRecompute, reputation.HandleRecomputeTask)
}

// HandleRecomputeTask обработчик задачи reputation.recompute.
// Ошибки по отдельным пользователям объединяются, задача повторяется целиком.
func (s *ReputationService) HandleRecomputeTask(ctx context.Context, task outbox.Task) error {
	var p outbox.ReputationPayload
	if err := task.Decode(&p); err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Error("некорректная задача пересчёта репутации")
		return nil
	}

	var errs []error
	for _, id := range uniqueIDs(p.UserIDs) {
		if _, err := s.Recompute(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
