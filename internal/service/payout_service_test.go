package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/repository"
)

func TestPayoutService_MarkPayoutCompleted(t *testing.T) {
	repo := new(mockPayoutRepo)
	cache := &fakeInvalidator{}
	tasks := &fakeTasks{}
	service := NewPayoutService(repo, cache, tasks)
	ctx := context.Background()
	payout := &models.Payout{
		ID:       uuid.New(),
		OrderID:  uuid.New(),
		SellerID: uuid.New(),
		Amount:   decimal.RequireFromString("90"),
		Status:   valueobject.PayoutStatusCompleted,
	}

	repo.On("MarkCompleted", ctx, payout.ID, mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Type == models.EventPayoutMarked
	})).Return(payout, nil)

	got, err := service.MarkPayoutCompleted(ctx, payout.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, valueobject.PayoutStatusCompleted, got.Status)
	assert.Equal(t, 1, cache.calls)
	require.Equal(t, 1, tasks.count(outbox.TypePushUser))
	assert.Equal(t, payout.SellerID, tasks.payloads[0].(outbox.PushUserPayload).UserID)
}

func TestPayoutService_MarkPayoutCompleted_AlreadyDone(t *testing.T) {
	repo := new(mockPayoutRepo)
	tasks := &fakeTasks{}
	service := NewPayoutService(repo, nil, tasks)
	ctx := context.Background()
	id := uuid.New()

	repo.On("MarkCompleted", ctx, id, mock.Anything).Return(nil, repository.ErrPayoutCompleted)

	_, err := service.MarkPayoutCompleted(ctx, id, uuid.New())
	assert.True(t, apperror.IsInvalidStatus(err))
	assert.Empty(t, tasks.types)
}

func TestPayoutService_ListPayouts(t *testing.T) {
	repo := new(mockPayoutRepo)
	service := NewPayoutService(repo, nil, nil)
	ctx := context.Background()

	repo.On("List", ctx, "PENDING", 20, 0).Return([]models.Payout{}, nil)

	_, err := service.ListPayouts(ctx, "pending", 0, 0)
	require.NoError(t, err)

	_, err = service.ListPayouts(ctx, "PAID", 0, 0)
	assert.True(t, apperror.IsValidation(err))
}
