package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// CreateReview POST /orders/:id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
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

	var req dto.CreateReviewRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), orderID, userID, req.Rating, req.Comment)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListOrderReviews GET /orders/:id/reviews
func (h *ReviewHandler) ListOrderReviews(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	reviews, err := h.reviews.ListOrderReviews(c.Request.Context(), orderID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// CanLeaveReview GET /orders/:id/can-review
func (h *ReviewHandler) CanLeaveReview(c *gin.Context) {
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

	eligibility, err := h.reviews.CanReviewOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// ListUserReviews GET /users/:id/reviews
func (h *ReviewHandler) ListUserReviews(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	ctx := c.Request.Context()

	reviews, err := h.reviews.ListUserReviews(ctx, userID, limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	avg, total, err := h.reviews.GetUserRating(ctx, userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserReviewsResponse{
		Reviews:       reviews,
		AverageRating: avg,
		TotalReviews:  total,
	})
}

// Distribution GET /users/:id/reviews/distribution
func (h *ReviewHandler) Distribution(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	dist, err := h.reviews.GetReviewDistribution(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dist)
}
