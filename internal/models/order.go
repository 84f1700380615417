package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
)

// Типы событий заказа.
const (
	EventOrderCreated      = "ORDER_CREATED"
	EventStatusChanged     = "STATUS_CHANGED"
	EventDeliverySubmitted = "DELIVERY_SUBMITTED"
	EventReviewStarted     = "REVIEW_STARTED"
	EventOrderCompleted    = "ORDER_COMPLETED"
	EventOrderCancelled    = "ORDER_CANCELLED"
	EventPayoutMarked      = "PAYOUT_MARKED"
)

// Order сделка между одним покупателем и одним продавцом.
type Order struct {
	ID                 uuid.UUID               `db:"id" json:"id"`
	OrderNumber        string                  `db:"order_number" json:"order_number"`
	BuyerID            uuid.UUID               `db:"buyer_id" json:"buyer_id"`
	SellerID           uuid.UUID               `db:"seller_id" json:"seller_id"`
	Status             valueobject.OrderStatus `db:"status" json:"status"`
	TotalAmount        decimal.Decimal         `db:"total_amount" json:"total_amount"`
	PayoutCompleted    bool                    `db:"payout_completed" json:"payout_completed"`
	CompletedAt        *time.Time              `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt        *time.Time              `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationReason *string                 `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time               `db:"updated_at" json:"updated_at"`
}

// IsParticipant сообщает, что пользователь покупатель или продавец.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// OrderItem снимок объявления на момент оформления.
type OrderItem struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrderID        uuid.UUID       `db:"order_id" json:"order_id"`
	ListingID      *uuid.UUID      `db:"listing_id" json:"listing_id,omitempty"`
	PokemonName    string          `db:"pokemon_name" json:"pokemon_name"`
	PokemonData    JSONB           `db:"pokemon_data" json:"pokemon_data,omitempty"`
	Price          decimal.Decimal `db:"price" json:"price"`
	Quantity       int             `db:"quantity" json:"quantity"`
	SellerID       uuid.UUID       `db:"seller_id" json:"seller_id"`
	SellerSnapshot JSONB           `db:"seller_snapshot" json:"seller_snapshot,omitempty"`
}

// OrderEvent запись аудита по заказу.
type OrderEvent struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OrderID   uuid.UUID  `db:"order_id" json:"order_id"`
	ActorID   *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	Type      string     `db:"type" json:"type"`
	Payload   JSONB      `db:"payload" json:"payload,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Payout выплата продавцу по завершённому заказу.
type Payout struct {
	ID          uuid.UUID                `db:"id" json:"id"`
	OrderID     uuid.UUID                `db:"order_id" json:"order_id"`
	SellerID    uuid.UUID                `db:"seller_id" json:"seller_id"`
	Method      valueobject.PayoutMethod `db:"method" json:"method"`
	Amount      decimal.Decimal          `db:"amount" json:"amount"`
	Reference   *string                  `db:"reference" json:"reference,omitempty"`
	Status      valueobject.PayoutStatus `db:"status" json:"status"`
	CompletedAt *time.Time               `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time                `db:"created_at" json:"created_at"`
}

// OrderDetails заказ со всем, что к нему относится.
type OrderDetails struct {
	Order
	Items  []OrderItem  `json:"items"`
	Events []OrderEvent `json:"events"`
	Payout *Payout      `json:"payout,omitempty"`
}

// OrderFilter параметры выборки заказов для админ-доски.
type OrderFilter struct {
	Status   string
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
	Limit    int
	Offset   int
}
