package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений админки.
const (
	AdminNotificationNewReview    = "NEW_REVIEW"
	AdminNotificationNewComplaint = "NEW_COMPLAINT"
)

// AdminNotification запись ленты событий для администраторов.
type AdminNotification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Payload   JSONB     `db:"payload" json:"payload"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
