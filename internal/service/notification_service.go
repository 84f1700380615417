package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// NotificationRepository хранилище ленты уведомлений админки.
type NotificationRepository interface {
	List(ctx context.Context, onlyUnread bool, limit, offset int) ([]models.AdminNotification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// NotificationService лента событий для администраторов (новые отзывы, жалобы).
type NotificationService struct {
	repo NotificationRepository
}

func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// ListNotifications возвращает уведомления, новые сначала.
func (s *NotificationService) ListNotifications(ctx context.Context, onlyUnread bool, limit, offset int) ([]models.AdminNotification, error) {
	limit, offset = normalizePage(limit, offset)
	items, err := s.repo.List(ctx, onlyUnread, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return items, nil
}

// MarkAsRead отмечает уведомление прочитанным.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	return mapRepoError(s.repo.MarkRead(ctx, id))
}
