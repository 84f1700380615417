package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

type PayoutHandler struct {
	payouts *service.PayoutService
}

func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// MyPayouts GET /payouts/my
func (h *PayoutHandler) MyPayouts(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.ListMyPayouts(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(payouts, limit, offset))
}

// List GET /admin/payouts?status=
func (h *PayoutHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	payouts, err := h.payouts.ListPayouts(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(payouts, limit, offset))
}

// Complete POST /admin/payouts/:id/complete
func (h *PayoutHandler) Complete(c *gin.Context) {
	runAdminAction(c, "id", func(c *gin.Context, ids adminIDs) (interface{}, error) {
		return h.payouts.MarkPayoutCompleted(c.Request.Context(), ids.target, ids.actor)
	})
}
