package valueobject

import "github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaymentConfirmed  OrderStatus = "payment_confirmed"
	OrderStatusDeliverySubmitted OrderStatus = "delivery_submitted"
	OrderStatusInReview          OrderStatus = "in_review"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
)

// orderTransitions единственный источник допустимых переходов заказа.
// payment_confirmed -> completed оставлен для ручного завершения из админ-доски.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:           {OrderStatusPaymentConfirmed, OrderStatusCancelled},
	OrderStatusPaymentConfirmed:  {OrderStatusDeliverySubmitted, OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusDeliverySubmitted: {OrderStatusInReview, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusInReview:          {OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusCompleted:         {},
	OrderStatusCancelled:         {},
	OrderStatusRefunded:          {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s OrderStatus) IsTerminal() bool {
	next, ok := orderTransitions[s]
	return ok && len(next) == 0
}

func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	for _, status := range orderTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// adminBoardTransitions подмножество orderTransitions для ручной смены статуса.
// Переходы через delivery_submitted и in_review выполняют только
// SubmitDelivery, RequestReview, CompleteOrder и CancelAndRefund.
var adminBoardTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:          {OrderStatusPaymentConfirmed, OrderStatusCancelled},
	OrderStatusPaymentConfirmed: {OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
}

// CanAdminSet сообщает, доступен ли переход в админ-доске.
func (s OrderStatus) CanAdminSet(newStatus OrderStatus) bool {
	for _, status := range adminBoardTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// CancellableStatuses перечисляет статусы, из которых возможна отмена.
func CancellableStatuses() []OrderStatus {
	out := make([]OrderStatus, 0, len(orderTransitions))
	for _, s := range AllOrderStatuses() {
		if s.CanTransitionTo(OrderStatusCancelled) {
			out = append(out, s)
		}
	}
	return out
}

// AllOrderStatuses возвращает статусы в порядке жизненного цикла.
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPaymentConfirmed,
		OrderStatusDeliverySubmitted,
		OrderStatusInReview,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
)

type PayoutMethod string

const (
	PayoutMethodPix   PayoutMethod = "PIX"
	PayoutMethodSplit PayoutMethod = "SPLIT"
)

func NewPayoutMethod(method string) (PayoutMethod, error) {
	m := PayoutMethod(method)
	switch m {
	case PayoutMethodPix, PayoutMethodSplit:
		return m, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "способ выплаты должен быть PIX или SPLIT")
}

type ConversationStatus string

const (
	ConversationStatusActive   ConversationStatus = "ACTIVE"
	ConversationStatusClosed   ConversationStatus = "CLOSED"
	ConversationStatusArchived ConversationStatus = "ARCHIVED"
)

type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeVideo  MessageType = "VIDEO"
	MessageTypeFile   MessageType = "FILE"
	MessageTypeSystem MessageType = "SYSTEM"
)
