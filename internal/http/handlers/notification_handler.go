package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

// NotificationHandler обслуживает уведомления администратора.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler создаёт новый хэндлер.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications обрабатывает GET /admin/notifications.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notifications.ListNotifications(c.Request.Context(), unreadOnly, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(notifications, limit, offset))
}

// MarkAsRead обрабатывает PUT /admin/notifications/:id/read.
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.notifications.MarkAsRead(c.Request.Context(), id); err != nil {
		common.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
