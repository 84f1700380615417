package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

var (
	conversationCols = []string{
		"id", "participant_1", "participant_2", "order_id", "status", "subject",
		"last_message_at", "created_at", "updated_at",
	}
	messageCols = []string{
		"id", "conversation_id", "sender_id", "content", "message_type",
		"file_url", "file_name", "file_size", "file_mime", "read_at", "created_at",
	}
)

func newMockConversationRepo(t *testing.T) (*ConversationRepository, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	return NewConversationRepository(sqlx.NewDb(rawDB, "postgres")), mock
}

func TestConversationRepository_SetStatus_WithSystemMessage(t *testing.T) {
	repo, mock := newMockConversationRepo(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE conversations SET status = \$2, updated_at = NOW\(\)\s+WHERE id = \$1 AND status = ANY\(\$3\)`).
		WithArgs(id, "CLOSED", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(conversationCols).AddRow(
			id.String(), uuid.New().String(), uuid.New().String(), nil, "CLOSED", nil, nil, now, now))
	mock.ExpectQuery("INSERT INTO chat_messages").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), now))
	mock.ExpectExec("UPDATE conversations SET last_message_at").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	msg := &models.ChatMessage{Content: "закрыт", MessageType: valueobject.MessageTypeSystem}
	conv, err := repo.SetStatus(context.Background(), id,
		[]valueobject.ConversationStatus{valueobject.ConversationStatusActive}, valueobject.ConversationStatusClosed, msg)

	require.NoError(t, err)
	assert.Equal(t, valueobject.ConversationStatusClosed, conv.Status)
	assert.Equal(t, id, msg.ConversationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_SetStatus_AlreadyChanged(t *testing.T) {
	repo, mock := newMockConversationRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE conversations SET status").
		WillReturnRows(sqlmock.NewRows(conversationCols))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	msg := &models.ChatMessage{Content: "закрыт", MessageType: valueobject.MessageTypeSystem}
	_, err := repo.SetStatus(context.Background(), id,
		[]valueobject.ConversationStatus{valueobject.ConversationStatusActive}, valueobject.ConversationStatusClosed, msg)

	assert.ErrorIs(t, err, ErrInvalidConversationStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_SetStatus_Missing(t *testing.T) {
	repo, mock := newMockConversationRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE conversations SET status").
		WillReturnRows(sqlmock.NewRows(conversationCols))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.SetStatus(context.Background(), uuid.New(),
		[]valueobject.ConversationStatus{valueobject.ConversationStatusClosed}, valueobject.ConversationStatusActive, nil)

	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_ListMessages_LatestWindow(t *testing.T) {
	repo, mock := newMockConversationRepo(t)
	convID := uuid.New()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(messageCols)
	for i := 3; i >= 1; i-- {
		rows.AddRow(uuid.New().String(), convID.String(), nil, fmt.Sprintf("m%d", i), "TEXT",
			nil, nil, nil, nil, nil, base.Add(time.Duration(i)*time.Minute))
	}
	mock.ExpectQuery(`ORDER BY created_at DESC\s+LIMIT \$2`).
		WithArgs(convID, int64(3)).
		WillReturnRows(rows)

	messages, err := repo.ListMessages(context.Background(), convID, nil, 3)

	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"m1", "m2", "m3"}, []string{messages[0].Content, messages[1].Content, messages[2].Content})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationRepository_ListMessages_Since(t *testing.T) {
	repo, mock := newMockConversationRepo(t)
	convID := uuid.New()
	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`created_at > \$2\s+ORDER BY created_at ASC`).
		WithArgs(convID, since, int64(50)).
		WillReturnRows(sqlmock.NewRows(messageCols).AddRow(
			uuid.New().String(), convID.String(), nil, "новое", "TEXT", nil, nil, nil, nil, nil, since.Add(time.Second)))

	messages, err := repo.ListMessages(context.Background(), convID, &since, 50)

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "новое", messages[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
