package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// PayoutRepository хранилище выплат.
type PayoutRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.Payout, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Payout, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, event models.OrderEvent) (*models.Payout, error)
}

type PayoutService struct {
	payouts PayoutRepository
	cache   ReportsInvalidator
	effects sideEffects
	log     *logrus.Entry
}

func NewPayoutService(payouts PayoutRepository, cache ReportsInvalidator, tasks TaskEnqueuer) *PayoutService {
	return &PayoutService{
		payouts: payouts,
		cache:   cache,
		effects: newSideEffects(tasks, "payout_service"),
		log:     logger.WithComponent("payout_service"),
	}
}

// ListPayouts выплаты для админки, старые первыми.
func (s *PayoutService) ListPayouts(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && status != string(valueobject.PayoutStatusPending) && status != string(valueobject.PayoutStatusCompleted) {
		return nil, validationError("статус выплаты должен быть PENDING или COMPLETED")
	}
	limit, offset = normalizePage(limit, offset)
	payouts, err := s.payouts.List(ctx, status, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return payouts, nil
}

func (s *PayoutService) ListMyPayouts(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	limit, offset = normalizePage(limit, offset)
	payouts, err := s.payouts.ListBySeller(ctx, sellerID, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return payouts, nil
}

// MarkPayoutCompleted переводит выплату PENDING -> COMPLETED и отмечает заказ.
func (s *PayoutService) MarkPayoutCompleted(ctx context.Context, payoutID, actorID uuid.UUID) (*models.Payout, error) {
	payout, err := s.payouts.MarkCompleted(ctx, payoutID, newEvent(models.EventPayoutMarked, actorID, map[string]interface{}{"payout_id": payoutID}))
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"payout_id": payoutID, "order_id": payout.OrderID, "actor_id": actorID}).Info("выплата проведена")
	if s.cache != nil {
		s.cache.InvalidateReports()
	}
	s.effects.push(ctx, payout.SellerID, "Выплата проведена", "Выплата "+payout.Amount.StringFixed(2)+" отправлена", map[string]string{
		"type":      "payout",
		"payout_id": payout.ID.String(),
		"order_id":  payout.OrderID.String(),
	})
	return payout, nil
}
