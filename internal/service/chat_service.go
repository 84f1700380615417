package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/storage"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
	"github.com/ignatzorin/pokemarket-backend/internal/ws"
)

const (
	maxMessagesPage = 500
	sniffLen        = 261

	closeNotice   = "Диалог закрыт администратором. Пожалуйста, оцените сделку: ваш отзыв поможет другим игрокам."
	reopenNotice  = "Диалог снова открыт администратором."
	archiveNotice = "Диалог перенесён в архив."
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindActiveBetween(ctx context.Context, a, b uuid.UUID, orderID *uuid.UUID) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ConversationSummary, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Conversation, error)
	InsertMessage(ctx context.Context, msg *models.ChatMessage) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, since *time.Time, limit int) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, from []valueobject.ConversationStatus, status valueobject.ConversationStatus, systemMsg *models.ChatMessage) (*models.Conversation, error)
}

// Broadcaster доставка событий подключённым клиентам.
type Broadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// Attachment загружаемый файл.
type Attachment struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	IsAdmin        bool
	FileName       string
	Size           int64
	Content        io.Reader
}

type ChatService struct {
	convs     ConversationRepository
	users     UserReader
	files     storage.FileStorage
	realtime  Broadcaster
	effects   sideEffects
	maxUpload int64
	log       *logrus.Entry
}

func NewChatService(convs ConversationRepository, users UserReader, files storage.FileStorage, realtime Broadcaster, tasks TaskEnqueuer, maxUploadMB int64) *ChatService {
	return &ChatService{
		convs:     convs,
		users:     users,
		files:     files,
		realtime:  realtime,
		effects:   newSideEffects(tasks, "chat_service"),
		maxUpload: maxUploadMB << 20,
		log:       logger.WithComponent("chat_service"),
	}
}

// StartConversation возвращает активный диалог пары (и заказа) или создаёт новый.
func (s *ChatService) StartConversation(ctx context.Context, userID, otherID uuid.UUID, orderID *uuid.UUID, subject string) (*models.Conversation, error) {
	if userID == otherID {
		return nil, validationError("нельзя начать диалог с самим собой")
	}
	subject = strings.TrimSpace(subject)
	if err := validation.ValidateLength("тема", subject, 0, validation.MaxSubjectLength); err != nil {
		return nil, validationError(err.Error())
	}

	if _, err := s.users.GetByID(ctx, otherID); err != nil {
		return nil, mapRepoError(err)
	}

	existing, err := s.convs.FindActiveBetween(ctx, userID, otherID, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &models.Conversation{
		Participant1: userID,
		Participant2: otherID,
		OrderID:      orderID,
		Status:       valueobject.ConversationStatusActive,
	}
	if subject != "" {
		conv.Subject = &subject
	}
	if err := s.convs.Create(ctx, conv); err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"conversation_id": conv.ID, "user_id": userID, "other_id": otherID}).Info("диалог создан")
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ConversationSummary, error) {
	limit, offset = normalizePage(limit, offset)
	convs, err := s.convs.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return convs, nil
}

// ListAllConversations список для админки.
func (s *ChatService) ListAllConversations(ctx context.Context, status string, limit, offset int) ([]models.Conversation, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !validConversationStatus(valueobject.ConversationStatus(status)) {
		return nil, validationError("неизвестный статус диалога")
	}
	limit, offset = normalizePage(limit, offset)
	convs, err := s.convs.ListAll(ctx, status, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return convs, nil
}

// ListMessages сообщения диалога; since отдаёт только новые.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, userID uuid.UUID, isAdmin bool, since *time.Time) ([]models.ChatMessage, error) {
	if _, err := s.access(ctx, conversationID, userID, isAdmin); err != nil {
		return nil, err
	}
	messages, err := s.convs.ListMessages(ctx, conversationID, since, maxMessagesPage)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return messages, nil
}

// SendMessage отправляет текстовое сообщение. В неактивный диалог пишет только администратор.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, isAdmin bool, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if err := validation.ValidateMessageContent(content); err != nil {
		return nil, validationError(err.Error())
	}

	conv, err := s.writable(ctx, conversationID, senderID, isAdmin)
	if err != nil {
		return nil, err
	}

	sender := senderID
	msg := &models.ChatMessage{
		ConversationID: conversationID,
		SenderID:       &sender,
		Content:        content,
		MessageType:    valueobject.MessageTypeText,
	}
	if err := s.convs.InsertMessage(ctx, msg); err != nil {
		return nil, mapRepoError(err)
	}

	s.deliver(ctx, conv, senderID, msg)
	return msg, nil
}

// UploadAttachment сохраняет файл и публикует сообщение с вложением.
func (s *ChatService) UploadAttachment(ctx context.Context, in Attachment) (*models.ChatMessage, error) {
	if in.Content == nil || in.Size == 0 {
		return nil, validationError("файл не передан")
	}
	if s.maxUpload > 0 && in.Size > s.maxUpload {
		return nil, validationError(fmt.Sprintf("файл больше %d МБ", s.maxUpload>>20))
	}

	conv, err := s.writable(ctx, in.ConversationID, in.SenderID, in.IsAdmin)
	if err != nil {
		return nil, err
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Content, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл")
	}
	header = header[:n]

	msgType, mime := detectAttachment(header)
	obj, err := s.files.Save(ctx, in.ConversationID.String(), in.FileName, mime, io.MultiReader(bytes.NewReader(header), in.Content))
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, validationError(fmt.Sprintf("файл больше %d МБ", s.maxUpload>>20))
		}
		return nil, apperror.Internal(err)
	}

	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = "file"
	}
	size := obj.Size
	url := obj.URL
	sender := in.SenderID
	msg := &models.ChatMessage{
		ConversationID: in.ConversationID,
		SenderID:       &sender,
		Content:        name,
		MessageType:    msgType,
		FileURL:        &url,
		FileName:       &name,
		FileSize:       &size,
		FileMime:       &mime,
	}
	if err := s.convs.InsertMessage(ctx, msg); err != nil {
		if delErr := s.files.Delete(ctx, obj.Path); delErr != nil {
			s.log.WithError(delErr).WithField("path", obj.Path).Warn("не удалось удалить осиротевший файл")
		}
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{
		"conversation_id": in.ConversationID,
		"sender_id":       in.SenderID,
		"type":            msgType,
		"size":            size,
	}).Info("вложение загружено")
	s.deliver(ctx, conv, in.SenderID, msg)
	return msg, nil
}

// MarkRead отмечает прочитанными сообщения собеседника.
func (s *ChatService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	conv, err := s.access(ctx, conversationID, userID, false)
	if err != nil {
		return 0, err
	}
	n, err := s.convs.MarkRead(ctx, conversationID, userID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	if n > 0 {
		s.broadcast(conv.OtherParticipant(userID), ws.EventChatRead, map[string]interface{}{
			"conversation_id": conversationID,
			"reader_id":       userID,
		})
	}
	return n, nil
}

// CloseConversation ACTIVE -> CLOSED с системным сообщением о выставлении оценки.
func (s *ChatService) CloseConversation(ctx context.Context, conversationID, adminID uuid.UUID) (*models.Conversation, error) {
	return s.changeStatus(ctx, conversationID, adminID, valueobject.ConversationStatusClosed, closeNotice,
		[]valueobject.ConversationStatus{valueobject.ConversationStatusActive})
}

// ReopenConversation CLOSED/ARCHIVED -> ACTIVE.
func (s *ChatService) ReopenConversation(ctx context.Context, conversationID, adminID uuid.UUID) (*models.Conversation, error) {
	return s.changeStatus(ctx, conversationID, adminID, valueobject.ConversationStatusActive, reopenNotice,
		[]valueobject.ConversationStatus{valueobject.ConversationStatusClosed, valueobject.ConversationStatusArchived})
}

func (s *ChatService) ArchiveConversation(ctx context.Context, conversationID, adminID uuid.UUID) (*models.Conversation, error) {
	return s.changeStatus(ctx, conversationID, adminID, valueobject.ConversationStatusArchived, archiveNotice,
		[]valueobject.ConversationStatus{valueobject.ConversationStatusActive, valueobject.ConversationStatusClosed})
}

// changeStatus меняет статус диалога. Окончательная проверка from выполняется в условном UPDATE.
func (s *ChatService) changeStatus(ctx context.Context, conversationID, adminID uuid.UUID, next valueobject.ConversationStatus, notice string, from []valueobject.ConversationStatus) (*models.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !containsStatus(from, conv.Status) {
		return nil, apperror.New(apperror.ErrCodeInvalidStatus, fmt.Sprintf("диалог уже в статусе %s", conv.Status))
	}

	system := &models.ChatMessage{Content: notice, MessageType: valueobject.MessageTypeSystem}
	updated, err := s.convs.SetStatus(ctx, conversationID, from, next, system)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"conversation_id": conversationID, "status": next, "admin_id": adminID}).Info("статус диалога изменён")
	event := map[string]interface{}{"conversation_id": conversationID, "status": next, "message": system}
	for _, uid := range []uuid.UUID{updated.Participant1, updated.Participant2} {
		s.broadcast(uid, ws.EventConversationStatus, event)
	}
	return updated, nil
}

func containsStatus(statuses []valueobject.ConversationStatus, status valueobject.ConversationStatus) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

// access проверяет участие пользователя в диалоге.
func (s *ChatService) access(ctx context.Context, conversationID, userID uuid.UUID, isAdmin bool) (*models.Conversation, error) {
	conv, err := s.convs.GetByID(ctx, conversationID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !isAdmin && !conv.HasParticipant(userID) {
		return nil, apperror.New(apperror.ErrCodeNotParticipant, "вы не участник этого диалога")
	}
	return conv, nil
}

func (s *ChatService) writable(ctx context.Context, conversationID, senderID uuid.UUID, isAdmin bool) (*models.Conversation, error) {
	conv, err := s.access(ctx, conversationID, senderID, isAdmin)
	if err != nil {
		return nil, err
	}
	if conv.Status != valueobject.ConversationStatusActive && !isAdmin {
		return nil, apperror.ErrConversationClosed
	}
	return conv, nil
}

// deliver сокет собеседнику и push в очередь.
func (s *ChatService) deliver(ctx context.Context, conv *models.Conversation, senderID uuid.UUID, msg *models.ChatMessage) {
	recipients := []uuid.UUID{conv.Participant1, conv.Participant2}
	for _, uid := range recipients {
		s.broadcast(uid, ws.EventChatMessage, msg)
	}

	if !conv.HasParticipant(senderID) {
		return
	}
	body := msg.Content
	if msg.MessageType != valueobject.MessageTypeText {
		body = "Вложение: " + msg.Content
	}
	s.effects.push(ctx, conv.OtherParticipant(senderID), "Новое сообщение", truncate(body, 120), map[string]string{
		"type":            "chat",
		"conversation_id": conv.ID.String(),
	})
}

func (s *ChatService) broadcast(userID uuid.UUID, event string, data interface{}) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.BroadcastToUser(userID, event, data); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("не удалось отправить событие в сокет")
	}
}

// detectAttachment определяет тип вложения по сигнатуре файла.
func detectAttachment(header []byte) (valueobject.MessageType, string) {
	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return valueobject.MessageTypeFile, "application/octet-stream"
	}
	switch {
	case filetype.IsImage(header):
		return valueobject.MessageTypeImage, kind.MIME.Value
	case filetype.IsVideo(header):
		return valueobject.MessageTypeVideo, kind.MIME.Value
	default:
		return valueobject.MessageTypeFile, kind.MIME.Value
	}
}

func validConversationStatus(s valueobject.ConversationStatus) bool {
	switch s {
	case valueobject.ConversationStatusActive, valueobject.ConversationStatusClosed, valueobject.ConversationStatusArchived:
		return true
	}
	return false
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
