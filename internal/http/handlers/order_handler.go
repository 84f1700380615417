package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Checkout POST /orders/checkout
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.CheckoutRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	details, err := h.orders.Checkout(c.Request.Context(), userID, req.ListingIDs)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, details)
}

// ListMyPurchases GET /orders/my
func (h *OrderHandler) ListMyPurchases(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListMyPurchases(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(orders, limit, offset))
}

// ListMySales GET /orders/sales
func (h *OrderHandler) ListMySales(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListMySales(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(orders, limit, offset))
}

// GetOrder GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	details, err := h.orders.GetOrder(c.Request.Context(), orderID, userID, common.IsAdmin(c))
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// SubmitDelivery POST /orders/:id/deliver
func (h *OrderHandler) SubmitDelivery(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	order, err := h.orders.SubmitDelivery(c.Request.Context(), orderID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders GET /admin/orders?status=&buyer_id=&seller_id=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	buyerID, err := common.ParseUUIDQuery(c, "buyer_id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	sellerID, err := common.ParseUUIDQuery(c, "seller_id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListOrders(c.Request.Context(), models.OrderFilter{
		Status:   c.Query("status"),
		BuyerID:  buyerID,
		SellerID: sellerID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(orders, limit, offset))
}

// RequestReview POST /admin/orders/:id/request-review
func (h *OrderHandler) RequestReview(c *gin.Context) {
	h.adminAction(c, func(c *gin.Context, ids adminIDs) (interface{}, error) {
		return h.orders.RequestReview(c.Request.Context(), ids.target, ids.actor)
	})
}

// CompleteOrder POST /admin/orders/:id/complete
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	h.adminAction(c, func(c *gin.Context, ids adminIDs) (interface{}, error) {
		var req dto.CompleteOrderRequest
		if err := common.BindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.orders.CompleteOrder(c.Request.Context(), ids.target, service.PayoutInput{
			Method:    req.Method,
			Amount:    req.Amount,
			Reference: req.Reference,
		}, ids.actor)
	})
}

// CancelOrder POST /admin/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.adminAction(c, func(c *gin.Context, ids adminIDs) (interface{}, error) {
		var req dto.CancelOrderRequest
		if err := common.BindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.orders.CancelAndRefund(c.Request.Context(), ids.target, req.Reason, ids.actor)
	})
}

// SetStatus PUT /admin/orders/:id/status
func (h *OrderHandler) SetStatus(c *gin.Context) {
	h.adminAction(c, func(c *gin.Context, ids adminIDs) (interface{}, error) {
		var req dto.SetOrderStatusRequest
		if err := common.BindJSON(c, &req); err != nil {
			return nil, err
		}
		return h.orders.SetStatus(c.Request.Context(), ids.target, req.Status, ids.actor)
	})
}

// MarkPayout POST /admin/orders/:id/payout
func (h *OrderHandler) MarkPayout(c *gin.Context) {
	h.adminAction(c, func(c *gin.Context, ids adminIDs) (interface{}, error) {
		return h.orders.MarkPayout(c.Request.Context(), ids.target, ids.actor)
	})
}

// DeleteOrder DELETE /admin/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), orderID, adminID); err != nil {
		common.Fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) adminAction(c *gin.Context, fn func(*gin.Context, adminIDs) (interface{}, error)) {
	runAdminAction(c, "id", fn)
}
