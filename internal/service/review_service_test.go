package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/repository"
)

func newReviewFixture() (*ReviewService, *mockReviewRepo, *mockOrderRepo, *fakeTasks) {
	reviews := new(mockReviewRepo)
	orders := new(mockOrderRepo)
	tasks := &fakeTasks{}
	return NewReviewService(reviews, orders, nil, tasks), reviews, orders, tasks
}

func TestReviewService_CreateReview_Success(t *testing.T) {
	service, reviews, orders, tasks := newReviewFixture()
	ctx := context.Background()
	order := orderIn(valueobject.OrderStatusCompleted, "10")
	comment := "  быстро передал, спасибо  "

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	reviews.On("GetByOrderAndReviewer", ctx, order.ID, order.BuyerID).Return(nil, nil)
	reviews.On("CreateWithNotification", ctx, mock.MatchedBy(func(r *models.Review) bool {
		return r.ReviewedID == order.SellerID &&
			r.ReviewType == models.ReviewTypeBuyerToSeller &&
			r.Rating == 5 &&
			*r.Comment == "быстро передал, спасибо"
	}), mock.MatchedBy(func(n *models.AdminNotification) bool {
		return n.Type == models.AdminNotificationNewReview && len(n.Payload) > 0
	})).Return(nil)

	review, err := service.CreateReview(ctx, order.ID, order.BuyerID, 5, &comment)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, review.ID)
	assert.Equal(t, 1, tasks.count(outbox.TypePushUser))
	assert.Equal(t, 1, tasks.count(outbox.TypeReputationRecompute))
}

func TestReviewService_CreateReview_SellerReviewsBuyer(t *testing.T) {
	service, reviews, orders, _ := newReviewFixture()
	ctx := context.Background()
	order := orderIn(valueobject.OrderStatusCompleted, "10")

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	reviews.On("GetByOrderAndReviewer", ctx, order.ID, order.SellerID).Return(nil, nil)
	reviews.On("CreateWithNotification", ctx, mock.MatchedBy(func(r *models.Review) bool {
		return r.ReviewedID == order.BuyerID && r.ReviewType == models.ReviewTypeSellerToBuyer && r.Comment == nil
	}), mock.Anything).Return(nil)

	_, err := service.CreateReview(ctx, order.ID, order.SellerID, 4, nil)
	require.NoError(t, err)
	reviews.AssertExpectations(t)
}

func TestReviewService_CreateReview_InvalidRating(t *testing.T) {
	service, _, orders, _ := newReviewFixture()

	for _, rating := range []int{0, 6, -1} {
		_, err := service.CreateReview(context.Background(), uuid.New(), uuid.New(), rating, nil)
		assert.True(t, apperror.IsValidation(err), "rating %d", rating)
	}
	orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestReviewService_CreateReview_OrderNotCompleted(t *testing.T) {
	service, _, orders, _ := newReviewFixture()
	ctx := context.Background()
	order := orderIn(valueobject.OrderStatusInReview, "10")

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := service.CreateReview(ctx, order.ID, order.BuyerID, 5, nil)
	assert.True(t, apperror.IsInvalidStatus(err))
}

func TestReviewService_CreateReview_NotParticipant(t *testing.T) {
	service, _, orders, _ := newReviewFixture()
	ctx := context.Background()
	order := orderIn(valueobject.OrderStatusCompleted, "10")

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := service.CreateReview(ctx, order.ID, uuid.New(), 5, nil)
	assert.True(t, apperror.IsNotParticipant(err))
}

func TestReviewService_CreateReview_AlreadyReviewed(t *testing.T) {
	service, reviews, orders, _ := newReviewFixture()
	ctx := context.Background()
	order := orderIn(valueobject.OrderStatusCompleted, "10")

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	reviews.On("GetByOrderAndReviewer", ctx, order.ID, order.BuyerID).Return(&models.Review{ID: uuid.New()}, nil)

	_, err := service.CreateReview(ctx, order.ID, order.BuyerID, 5, nil)
	assert.True(t, apperror.IsDuplicateReview(err))
	reviews.AssertNotCalled(t, "CreateWithNotification", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_CreateReview_ConcurrentDuplicate(t *testing.T) {
	service, reviews, orders, tasks := newReviewFixture()
	ctx := context.Background()
	order := orderIn(valueobject.OrderStatusCompleted, "10")

	// проверка прошла, но параллельная вставка успела раньше
	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	reviews.On("GetByOrderAndReviewer", ctx, order.ID, order.BuyerID).Return(nil, nil)
	reviews.On("CreateWithNotification", ctx, mock.Anything, mock.Anything).Return(repository.ErrDuplicateReview)

	_, err := service.CreateReview(ctx, order.ID, order.BuyerID, 5, nil)
	assert.True(t, apperror.IsDuplicateReview(err))
	assert.Empty(t, tasks.types)
}

func TestReviewService_CanReviewOrder(t *testing.T) {
	service, reviews, orders, _ := newReviewFixture()
	ctx := context.Background()
	completed := orderIn(valueobject.OrderStatusCompleted, "10")
	pending := orderIn(valueobject.OrderStatusPending, "10")

	orders.On("GetByID", ctx, completed.ID).Return(completed, nil)
	orders.On("GetByID", ctx, pending.ID).Return(pending, nil)
	reviews.On("GetByOrderAndReviewer", ctx, completed.ID, completed.BuyerID).Return(nil, nil)
	reviews.On("GetByOrderAndReviewer", ctx, completed.ID, completed.SellerID).Return(&models.Review{}, nil)

	res, err := service.CanReviewOrder(ctx, completed.ID, completed.BuyerID)
	require.NoError(t, err)
	assert.True(t, res.CanReview)

	res, err = service.CanReviewOrder(ctx, completed.ID, completed.SellerID)
	require.NoError(t, err)
	assert.False(t, res.CanReview)
	assert.Equal(t, apperror.ErrDuplicateReview.Message, res.Reason)

	res, err = service.CanReviewOrder(ctx, pending.ID, pending.BuyerID)
	require.NoError(t, err)
	assert.False(t, res.CanReview)
	assert.NotEmpty(t, res.Reason)
}

func TestReviewService_CanReviewOrder_StorageErrorPropagates(t *testing.T) {
	service, _, orders, _ := newReviewFixture()
	ctx := context.Background()
	id := uuid.New()

	orders.On("GetByID", ctx, id).Return(nil, assert.AnError)

	_, err := service.CanReviewOrder(ctx, id, uuid.New())
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.ErrCodeInternal, appErr.Code)
}

func TestComputeDistribution(t *testing.T) {
	dist := ComputeDistribution([]models.RatingCount{
		{Rating: 5, Count: 2},
		{Rating: 4, Count: 1},
	})

	require.Len(t, dist.Buckets, 5)
	assert.Equal(t, 3, dist.Total)
	assert.Equal(t, 5, dist.Buckets[0].Rating)
	assert.Equal(t, 66.7, dist.Buckets[0].Percentage)
	assert.Equal(t, 33.3, dist.Buckets[1].Percentage)
	assert.Equal(t, 1, dist.Buckets[4].Rating)
	assert.Zero(t, dist.Buckets[4].Count)
}

func TestComputeDistribution_Empty(t *testing.T) {
	dist := ComputeDistribution(nil)

	require.Len(t, dist.Buckets, 5)
	assert.Zero(t, dist.Total)
	for _, b := range dist.Buckets {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Percentage)
	}
}

func TestReviewService_GetReviewDistribution_Cached(t *testing.T) {
	reviews := new(mockReviewRepo)
	cache := NewCacheService()
	defer cache.Close()
	service := NewReviewService(reviews, new(mockOrderRepo), cache, nil)
	ctx := context.Background()
	userID := uuid.New()

	reviews.On("CountByRating", ctx, userID).Return([]models.RatingCount{{Rating: 3, Count: 4}}, nil).Once()

	first, err := service.GetReviewDistribution(ctx, userID)
	require.NoError(t, err)
	second, err := service.GetReviewDistribution(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 100.0, second.Buckets[2].Percentage)
	reviews.AssertNumberOfCalls(t, "CountByRating", 1)
}
