package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

// ConversationHandler обслуживает маршруты чатов и сообщений
type ConversationHandler struct {
	chat *service.ChatService
}

// NewConversationHandler создаёт новый хэндлер.
func NewConversationHandler(chat *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chat: chat}
}

// ListMyConversations GET /conversations
func (h *ConversationHandler) ListMyConversations(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	items, err := h.chat.ListConversations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(items, limit, offset))
}

// StartConversation POST /conversations
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.StartConversationRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	conv, err := h.chat.StartConversation(c.Request.Context(), userID, req.UserID, req.OrderID, req.Subject)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// ListMessages GET /conversations/:id/messages?since=RFC3339
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			common.Fail(c, apperror.New(apperror.ErrCodeBadRequest, "неверный since"))
			return
		}
		since = &parsed
	}

	messages, err := h.chat.ListMessages(c.Request.Context(), conversationID, userID, common.IsAdmin(c), since)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage POST /conversations/:id/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.SendMessageRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	msg, err := h.chat.SendMessage(c.Request.Context(), conversationID, userID, common.IsAdmin(c), req.Content)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// UploadAttachment POST /chat/upload (multipart: conversation_id или conversationId, file)
func (h *ConversationHandler) UploadAttachment(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	rawID := c.PostForm("conversation_id")
	if rawID == "" {
		rawID = c.PostForm("conversationId")
	}
	conversationID, err := uuid.Parse(rawID)
	if err != nil {
		common.Fail(c, apperror.New(apperror.ErrCodeBadRequest, "неверный conversation_id"))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, apperror.New(apperror.ErrCodeValidation, "файл обязателен"))
		return
	}
	file, err := header.Open()
	if err != nil {
		common.Fail(c, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл"))
		return
	}
	defer file.Close()

	msg, err := h.chat.UploadAttachment(c.Request.Context(), service.Attachment{
		ConversationID: conversationID,
		SenderID:       userID,
		IsAdmin:        common.IsAdmin(c),
		FileName:       header.Filename,
		Size:           header.Size,
		Content:        file,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": msg})
}

// MarkRead POST /conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	updated, err := h.chat.MarkRead(c.Request.Context(), conversationID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MarkReadResponse{Updated: updated})
}

// ListAll GET /admin/conversations?status=
func (h *ConversationHandler) ListAll(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	items, err := h.chat.ListAllConversations(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(items, limit, offset))
}

// Close POST /admin/conversations/:id/close
func (h *ConversationHandler) Close(c *gin.Context) {
	runAdminAction(c, "id", func(c *gin.Context, ids adminIDs) (interface{}, error) {
		return h.chat.CloseConversation(c.Request.Context(), ids.target, ids.actor)
	})
}

// Reopen POST /admin/conversations/:id/reopen
func (h *ConversationHandler) Reopen(c *gin.Context) {
	runAdminAction(c, "id", func(c *gin.Context, ids adminIDs) (interface{}, error) {
		return h.chat.ReopenConversation(c.Request.Context(), ids.target, ids.actor)
	})
}

// Archive POST /admin/conversations/:id/archive
func (h *ConversationHandler) Archive(c *gin.Context) {
	runAdminAction(c, "id", func(c *gin.Context, ids adminIDs) (interface{}, error) {
		return h.chat.ArchiveConversation(c.Request.Context(), ids.target, ids.actor)
	})
}
