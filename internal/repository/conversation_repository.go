package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/repository/common"
)

// ConversationRepository хранит диалоги и сообщения чата.
type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create создаёт диалог.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.Status == "" {
		conv.Status = valueobject.ConversationStatusActive
	}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO conversations (participant_1, participant_2, order_id, status, subject)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, conv.Participant1, conv.Participant2, conv.OrderID, conv.Status, conv.Subject).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("conversation repository: create %w", err)
	}
	return nil
}

// GetByID возвращает диалог.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	return common.GetByID[models.Conversation](ctx, r.db, "conversations", id, ErrConversationNotFound)
}

// FindActiveBetween ищет активный диалог пары пользователей в контексте заказа. Возвращает nil, если его нет.
func (r *ConversationRepository) FindActiveBetween(ctx context.Context, a, b uuid.UUID, orderID *uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations
		WHERE ((participant_1 = $1 AND participant_2 = $2) OR (participant_1 = $2 AND participant_2 = $1))
		  AND status = 'ACTIVE'
		  AND order_id IS NOT DISTINCT FROM $3
		ORDER BY created_at DESC
		LIMIT 1
	`, a, b, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("conversation repository: find %w", err)
	}
	return &conv, nil
}

// ListForUser возвращает диалоги пользователя с последним сообщением и счётчиком непрочитанных.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ConversationSummary, error) {
	summaries := []models.ConversationSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT c.*,
		       u.id AS other_user_id,
		       u.username AS other_username,
		       lm.content AS last_message,
		       lm.message_type AS last_message_type,
		       lm.sender_id AS last_sender_id,
		       o.order_number,
		       (SELECT COUNT(*) FROM chat_messages m
		         WHERE m.conversation_id = c.id
		           AND m.read_at IS NULL
		           AND m.sender_id IS DISTINCT FROM $1) AS unread_count
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.participant_1 = $1 THEN c.participant_2 ELSE c.participant_1 END
		LEFT JOIN orders o ON o.id = c.order_id
		LEFT JOIN LATERAL (
			SELECT content, message_type, sender_id FROM chat_messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) lm ON TRUE
		WHERE c.participant_1 = $1 OR c.participant_2 = $1
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: list for user %w", err)
	}
	return summaries, nil
}

// ListAll возвращает все диалоги для модерации.
func (r *ConversationRepository) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Conversation, error) {
	convs := []models.Conversation{}
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE ($1 = '' OR status = $1)
		ORDER BY COALESCE(last_message_at, created_at) DESC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("conversation repository: list all %w", err)
	}
	return convs, nil
}

// InsertMessage сохраняет сообщение и сдвигает last_message_at диалога.
func (r *ConversationRepository) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertMessage(ctx, tx, msg)
	})
}

// ListMessages возвращает сообщения по возрастанию времени. since отсекает уже полученные.
// Без since отдаются последние limit сообщений.
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, since *time.Time, limit int) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	var err error
	if since != nil {
		err = r.db.SelectContext(ctx, &messages, `
			SELECT * FROM chat_messages
			WHERE conversation_id = $1 AND created_at > $2
			ORDER BY created_at ASC
			LIMIT $3
		`, conversationID, *since, limit)
	} else {
		err = r.db.SelectContext(ctx, &messages, `
			SELECT * FROM chat_messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`, conversationID, limit)
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	if err != nil {
		return nil, fmt.Errorf("conversation repository: list messages %w", err)
	}
	return messages, nil
}

// MarkRead отмечает прочитанными сообщения собеседника. Возвращает число отмеченных.
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE chat_messages SET read_at = NOW()
		WHERE conversation_id = $1 AND read_at IS NULL AND sender_id IS DISTINCT FROM $2
	`, conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("conversation repository: mark read %w", err)
	}
	return res.RowsAffected()
}

// SetStatus меняет статус диалога, если текущий статус входит в from,
// и, если передано, добавляет системное сообщение.
func (r *ConversationRepository) SetStatus(ctx context.Context, id uuid.UUID, from []valueobject.ConversationStatus, status valueobject.ConversationStatus, systemMsg *models.ChatMessage) (*models.Conversation, error) {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}

	var conv models.Conversation
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &conv, `
			UPDATE conversations SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = ANY($3)
			RETURNING *
		`, id, status, pq.Array(allowed))
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("conversation repository: set status %w", err)
			}
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, id); err != nil {
				return fmt.Errorf("conversation repository: check conversation %w", err)
			}
			if !exists {
				return ErrConversationNotFound
			}
			return ErrInvalidConversationStatus
		}
		if systemMsg == nil {
			return nil
		}
		systemMsg.ConversationID = id
		if err := insertMessage(ctx, tx, systemMsg); err != nil {
			return err
		}
		conv.LastMessageAt = &systemMsg.CreatedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, msg *models.ChatMessage) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (conversation_id, sender_id, content, message_type, file_url, file_name, file_size, file_mime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, msg.ConversationID, msg.SenderID, msg.Content, msg.MessageType, msg.FileURL, msg.FileName, msg.FileSize, msg.FileMime).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("conversation repository: insert message %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = $2, updated_at = NOW() WHERE id = $1
	`, msg.ConversationID, msg.CreatedAt); err != nil {
		return fmt.Errorf("conversation repository: touch conversation %w", err)
	}
	return nil
}
