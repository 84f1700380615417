package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

// PushHandler устройства пользователей и рассылки.
type PushHandler struct {
	push *service.PushService
}

func NewPushHandler(push *service.PushService) *PushHandler {
	return &PushHandler{push: push}
}

// RegisterDevice POST /devices
func (h *PushHandler) RegisterDevice(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.RegisterDeviceRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	device, err := h.push.RegisterDevice(c.Request.Context(), userID, req.Token, req.Platform)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, device)
}

// UnregisterDevice DELETE /devices/:token
func (h *PushHandler) UnregisterDevice(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.push.UnregisterDevice(c.Request.Context(), userID, c.Param("token")); err != nil {
		common.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SendToUser POST /admin/push/users/:id
func (h *PushHandler) SendToUser(c *gin.Context) {
	runAdminAction(c, "id", func(c *gin.Context, ids adminIDs) (interface{}, error) {
		var req dto.PushMessageRequest
		if err := common.BindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.push.SendToUser(c.Request.Context(), ids.target, messageInput(req))
	})
}

// CreateCampaign POST /admin/push/campaigns
func (h *PushHandler) CreateCampaign(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.CampaignRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	campaign, err := h.push.CreateCampaign(c.Request.Context(), adminID, service.CampaignInput{
		MessageInput: messageInput(req.PushMessageRequest),
		Segment:      req.Segment,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// ListCampaigns GET /admin/push/campaigns
func (h *PushHandler) ListCampaigns(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	campaigns, err := h.push.ListCampaigns(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(campaigns, limit, offset))
}

func messageInput(req dto.PushMessageRequest) service.MessageInput {
	return service.MessageInput{
		Title:    req.Title,
		Body:     req.Body,
		ImageURL: req.ImageURL,
		Data:     req.Data,
	}
}
