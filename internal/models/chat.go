package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
)

// Conversation диалог двух пользователей, опционально привязанный к заказу.
type Conversation struct {
	ID            uuid.UUID                      `db:"id" json:"id"`
	Participant1  uuid.UUID                      `db:"participant_1" json:"participant_1"`
	Participant2  uuid.UUID                      `db:"participant_2" json:"participant_2"`
	OrderID       *uuid.UUID                     `db:"order_id" json:"order_id,omitempty"`
	Status        valueobject.ConversationStatus `db:"status" json:"status"`
	Subject       *string                        `db:"subject" json:"subject,omitempty"`
	LastMessageAt *time.Time                     `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time                      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time                      `db:"updated_at" json:"updated_at"`
}

// HasParticipant проверяет участие пользователя в диалоге.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.Participant1 == userID || c.Participant2 == userID
}

// OtherParticipant возвращает собеседника.
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.Participant1 == userID {
		return c.Participant2
	}
	return c.Participant1
}

// ChatMessage сообщение диалога. SenderID пуст у системных сообщений.
type ChatMessage struct {
	ID             uuid.UUID               `db:"id" json:"id"`
	ConversationID uuid.UUID               `db:"conversation_id" json:"conversation_id"`
	SenderID       *uuid.UUID              `db:"sender_id" json:"sender_id,omitempty"`
	Content        string                  `db:"content" json:"content"`
	MessageType    valueobject.MessageType `db:"message_type" json:"message_type"`
	FileURL        *string                 `db:"file_url" json:"file_url,omitempty"`
	FileName       *string                 `db:"file_name" json:"file_name,omitempty"`
	FileSize       *int64                  `db:"file_size" json:"file_size,omitempty"`
	FileMime       *string                 `db:"file_mime" json:"file_mime,omitempty"`
	ReadAt         *time.Time              `db:"read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
}

// ConversationSummary строка списка диалогов.
type ConversationSummary struct {
	Conversation
	OtherUserID     uuid.UUID  `db:"other_user_id" json:"other_user_id"`
	OtherUsername   string     `db:"other_username" json:"other_username"`
	LastMessage     *string    `db:"last_message" json:"last_message,omitempty"`
	LastMessageType *string    `db:"last_message_type" json:"last_message_type,omitempty"`
	UnreadCount     int        `db:"unread_count" json:"unread_count"`
	OrderNumber     *string    `db:"order_number" json:"order_number,omitempty"`
	LastSenderID    *uuid.UUID `db:"last_sender_id" json:"last_sender_id,omitempty"`
}
