package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
)

const maxCheckoutItems = 20

// OrderRepository описывает хранилище заказов.
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem, event models.OrderEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetDetails(ctx context.Context, id uuid.UUID) (*models.OrderDetails, error)
	List(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from []valueobject.OrderStatus, to valueobject.OrderStatus, event models.OrderEvent) (*models.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID, payout *models.Payout, event models.OrderEvent) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string, event models.OrderEvent) (*models.Order, error)
	MarkPayout(ctx context.Context, orderID uuid.UUID, event models.OrderEvent) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListingReader чтение объявлений при оформлении заказа.
type ListingReader interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error)
}

// UserReader чтение пользователя.
type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ReportsInvalidator сбрасывает кэш отчётов.
type ReportsInvalidator interface {
	InvalidateReports()
}

// PayoutInput данные выплаты при завершении заказа.
type PayoutInput struct {
	Method    string          `validate:"required,oneof=PIX SPLIT"`
	Amount    decimal.Decimal `validate:"-"`
	Reference *string         `validate:"omitempty,max=200"`
}

// CompletionResult завершённый заказ и созданная выплата.
type CompletionResult struct {
	Order  *models.Order  `json:"order"`
	Payout *models.Payout `json:"payout"`
}

// OrderService жизненный цикл сделки.
type OrderService struct {
	orders   OrderRepository
	listings ListingReader
	users    UserReader
	cache    ReportsInvalidator
	effects  sideEffects
	log      *logrus.Entry
	now      func() time.Time
}

func NewOrderService(orders OrderRepository, listings ListingReader, users UserReader, cache ReportsInvalidator, tasks TaskEnqueuer) *OrderService {
	return &OrderService{
		orders:   orders,
		listings: listings,
		users:    users,
		cache:    cache,
		effects:  newSideEffects(tasks, "order_service"),
		log:      logger.WithComponent("order_service"),
		now:      time.Now,
	}
}

// Checkout оформляет заказ покупателя на объявления одного продавца.
func (s *OrderService) Checkout(ctx context.Context, buyerID uuid.UUID, listingIDs []uuid.UUID) (*models.OrderDetails, error) {
	ids := uniqueIDs(listingIDs)
	if len(ids) == 0 {
		return nil, validationError("не выбрано ни одного объявления")
	}
	if len(ids) > maxCheckoutItems {
		return nil, validationError(fmt.Sprintf("не более %d объявлений в заказе", maxCheckoutItems))
	}

	listings, err := s.listings.GetByIDs(ctx, ids)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(listings) != len(ids) {
		return nil, apperror.ErrListingNotFound
	}

	sellerID := listings[0].OwnerID
	total := decimal.Zero
	for _, l := range listings {
		switch {
		case !l.Active:
			return nil, apperror.New(apperror.ErrCodeConflict, "объявление снято с продажи: "+l.Title)
		case l.OwnerID != sellerID:
			return nil, validationError("все объявления заказа должны быть от одного продавца")
		case l.OwnerID == buyerID:
			return nil, apperror.New(apperror.ErrCodeForbidden, "нельзя купить собственное объявление")
		}
		total = total.Add(l.PriceSuggested)
	}

	seller, err := s.users.GetByID(ctx, sellerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	snapshot, err := json.Marshal(map[string]interface{}{
		"username":         seller.Username,
		"reputation_score": seller.ReputationScore,
		"seller_level":     seller.SellerLevel,
		"verified_seller":  seller.VerifiedSeller,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	items := make([]models.OrderItem, 0, len(listings))
	for _, l := range listings {
		listingID := l.ID
		items = append(items, models.OrderItem{
			ListingID:      &listingID,
			PokemonName:    l.Title,
			PokemonData:    l.PokemonData,
			Price:          l.PriceSuggested,
			Quantity:       1,
			SellerID:       sellerID,
			SellerSnapshot: snapshot,
		})
	}

	number, err := s.orderNumber()
	if err != nil {
		return nil, apperror.Internal(err)
	}

	order := &models.Order{
		OrderNumber: number,
		BuyerID:     buyerID,
		SellerID:    sellerID,
		Status:      valueobject.OrderStatusPending,
		TotalAmount: total,
	}
	event := newEvent(models.EventOrderCreated, buyerID, map[string]interface{}{"items": len(items), "total": total})

	if err := s.orders.CreateWithItems(ctx, order, items, event); err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "buyer_id": buyerID, "seller_id": sellerID}).Info("заказ оформлен")
	s.effects.push(ctx, sellerID, "Новый заказ", "Заказ "+order.OrderNumber+" ожидает оплаты", orderData(order))

	return &models.OrderDetails{Order: *order, Items: items, Events: []models.OrderEvent{event}}, nil
}

// SubmitDelivery продавец сообщает о передаче предмета в игре.
func (s *OrderService) SubmitDelivery(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if order.SellerID != sellerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отметить доставку может только продавец")
	}
	if order.Status != valueobject.OrderStatusPaymentConfirmed {
		return nil, invalidStatus(order.Status)
	}

	updated, err := s.orders.TransitionStatus(ctx, orderID,
		[]valueobject.OrderStatus{valueobject.OrderStatusPaymentConfirmed},
		valueobject.OrderStatusDeliverySubmitted,
		newEvent(models.EventDeliverySubmitted, sellerID, nil))
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.effects.push(ctx, updated.BuyerID, "Предмет передан", "Продавец отметил передачу по заказу "+updated.OrderNumber, orderData(updated))
	return updated, nil
}

// RequestReview переводит заказ на проверку администратором.
func (s *OrderService) RequestReview(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if order.Status != valueobject.OrderStatusDeliverySubmitted {
		return nil, invalidStatus(order.Status)
	}

	updated, err := s.orders.TransitionStatus(ctx, orderID,
		[]valueobject.OrderStatus{valueobject.OrderStatusDeliverySubmitted},
		valueobject.OrderStatusInReview,
		newEvent(models.EventReviewStarted, actorID, nil))
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "actor_id": actorID}).Info("заказ передан на проверку")
	return updated, nil
}

// CompleteOrder завершает заказ и создаёт выплату продавцу. Нулевая сумма заменяется долей продавца.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID uuid.UUID, in PayoutInput, actorID uuid.UUID) (*CompletionResult, error) {
	in.Method = strings.ToUpper(strings.TrimSpace(in.Method))
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	method, err := valueobject.NewPayoutMethod(in.Method)
	if err != nil {
		return nil, err
	}
	amount, err := valueobject.NewMoney(in.Amount)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if order.Status != valueobject.OrderStatusInReview {
		return nil, invalidStatus(order.Status)
	}

	if amount.IsZero() {
		amount = valueobject.SplitAmount(order.TotalAmount).Seller
	}

	payout := &models.Payout{
		Method:    method,
		Amount:    amount,
		Reference: in.Reference,
		Status:    valueobject.PayoutStatusPending,
	}
	event := newEvent(models.EventOrderCompleted, actorID, map[string]interface{}{
		"payout_method": method,
		"amount":        amount,
	})

	completed, err := s.orders.Complete(ctx, orderID, payout, event)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "actor_id": actorID, "amount": amount.String()}).Info("заказ завершён")
	s.invalidateReports()
	data := orderData(completed)
	s.effects.push(ctx, completed.SellerID, "Выплата назначена", fmt.Sprintf("Выплата %s по заказу %s", amount.StringFixed(2), completed.OrderNumber), data)
	s.effects.push(ctx, completed.BuyerID, "Заказ завершён", "Заказ "+completed.OrderNumber+" завершён, оцените продавца", data)
	s.effects.recomputeReputation(ctx, completed.SellerID, completed.BuyerID)

	return &CompletionResult{Order: completed, Payout: payout}, nil
}

// CancelAndRefund отменяет нетерминальный заказ с обязательной причиной.
func (s *OrderService) CancelAndRefund(ctx context.Context, orderID uuid.UUID, reason string, actorID uuid.UUID) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if err := validation.ValidateReason(reason); err != nil {
		return nil, validationError(err.Error())
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !order.Status.CanTransitionTo(valueobject.OrderStatusCancelled) {
		return nil, invalidStatus(order.Status)
	}

	cancelled, err := s.orders.Cancel(ctx, orderID, reason,
		newEvent(models.EventOrderCancelled, actorID, map[string]interface{}{"reason": reason, "from": order.Status}))
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "actor_id": actorID}).Info("заказ отменён")
	s.invalidateReports()
	data := orderData(cancelled)
	body := "Заказ " + cancelled.OrderNumber + " отменён: " + reason
	s.effects.push(ctx, cancelled.BuyerID, "Заказ отменён", body, data)
	s.effects.push(ctx, cancelled.SellerID, "Заказ отменён", body, data)

	return cancelled, nil
}

// SetStatus ручная смена статуса из админ-доски. Заказы в delivery_submitted
// и in_review ведутся только через RequestReview, CompleteOrder и CancelAndRefund.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, status string, actorID uuid.UUID) (*models.Order, error) {
	next, err := valueobject.NewOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !order.Status.CanAdminSet(next) {
		return nil, invalidStatus(order.Status)
	}

	var updated *models.Order
	if next == valueobject.OrderStatusCancelled {
		updated, err = s.orders.Cancel(ctx, orderID, "отменён администратором",
			newEvent(models.EventOrderCancelled, actorID, map[string]interface{}{"from": order.Status}))
	} else {
		updated, err = s.orders.TransitionStatus(ctx, orderID,
			[]valueobject.OrderStatus{order.Status}, next,
			newEvent(models.EventStatusChanged, actorID, map[string]interface{}{"from": order.Status, "to": next}))
	}
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "from": order.Status, "to": next, "actor_id": actorID}).Info("статус заказа изменён")
	if next.IsTerminal() {
		s.invalidateReports()
	}
	if next == valueobject.OrderStatusCompleted {
		s.effects.recomputeReputation(ctx, updated.SellerID, updated.BuyerID)
	}
	return updated, nil
}

// MarkPayout отмечает выплату по завершённому заказу.
func (s *OrderService) MarkPayout(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if order.Status != valueobject.OrderStatusCompleted {
		return nil, invalidStatus(order.Status)
	}

	updated, err := s.orders.MarkPayout(ctx, orderID, newEvent(models.EventPayoutMarked, actorID, nil))
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.invalidateReports()
	s.effects.push(ctx, updated.SellerID, "Выплата проведена", "Выплата по заказу "+updated.OrderNumber+" отправлена", orderData(updated))
	return updated, nil
}

// DeleteOrder безвозвратно удаляет заказ.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, actorID uuid.UUID) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return mapRepoError(err)
	}
	s.log.WithFields(logrus.Fields{"order_id": orderID, "actor_id": actorID}).Warn("заказ удалён")
	s.invalidateReports()
	return nil
}

// GetOrder возвращает заказ участнику сделки или администратору.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.OrderDetails, error) {
	details, err := s.orders.GetDetails(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !isAdmin && !details.IsParticipant(userID) {
		return nil, apperror.ErrNotParticipant
	}
	return details, nil
}

func (s *OrderService) ListMyPurchases(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	return s.list(ctx, models.OrderFilter{BuyerID: &buyerID, Limit: limit, Offset: offset})
}

func (s *OrderService) ListMySales(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	limit, offset = normalizePage(limit, offset)
	return s.list(ctx, models.OrderFilter{SellerID: &sellerID, Limit: limit, Offset: offset})
}

// ListOrders выборка для админ-доски.
func (s *OrderService) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	if f.Status != "" {
		if _, err := valueobject.NewOrderStatus(f.Status); err != nil {
			return nil, err
		}
	}
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)
	return s.list(ctx, f)
}

func (s *OrderService) list(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return orders, nil
}

func (s *OrderService) invalidateReports() {
	if s.cache != nil {
		s.cache.InvalidateReports()
	}
}

const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// orderNumber формирует номер вида PKM-20240131-7KQ2ZD.
func (s *OrderService) orderNumber() (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = orderNumberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("PKM-%s-%s", s.now().UTC().Format("20060102"), suffix), nil
}

func newEvent(eventType string, actorID uuid.UUID, payload map[string]interface{}) models.OrderEvent {
	event := models.OrderEvent{Type: eventType}
	if actorID != uuid.Nil {
		actor := actorID
		event.ActorID = &actor
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			event.Payload = raw
		}
	}
	return event
}

func invalidStatus(current valueobject.OrderStatus) error {
	return apperror.New(apperror.ErrCodeInvalidStatus, fmt.Sprintf("действие недоступно в статусе %s", current))
}

func orderData(o *models.Order) map[string]string {
	return map[string]string{
		"type":         "order",
		"order_id":     o.ID.String(),
		"order_number": o.OrderNumber,
		"status":       string(o.Status),
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
