package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// NotificationRepository отвечает за ленту уведомлений администраторов.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт экземпляр репозитория.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List возвращает уведомления, новые сначала.
func (r *NotificationRepository) List(ctx context.Context, onlyUnread bool, limit, offset int) ([]models.AdminNotification, error) {
	notifications := []models.AdminNotification{}
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM admin_notifications
		WHERE ($1 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, onlyUnread, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return notifications, nil
}

// MarkRead помечает уведомление прочитанным.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admin_notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark read %w", err)
	}
	return expectAffected(res, ErrNotificationNotFound)
}

func insertAdminNotification(ctx context.Context, q sqlx.QueryerContext, n *models.AdminNotification) error {
	if len(n.Payload) == 0 {
		n.Payload = models.JSONB("{}")
	}
	err := q.QueryRowxContext(ctx, `
		INSERT INTO admin_notifications (type, payload)
		VALUES ($1, $2)
		RETURNING id, is_read, created_at
	`, n.Type, n.Payload).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}
