package models

import (
	"time"

	"github.com/google/uuid"
)

// Направление отзыва.
const (
	ReviewTypeBuyerToSeller = "buyer_to_seller"
	ReviewTypeSellerToBuyer = "seller_to_buyer"
)

// Review оценка второй стороны после завершения заказа.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	ReviewedID uuid.UUID `db:"reviewed_id" json:"reviewed_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	ReviewType string    `db:"review_type" json:"review_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RatingCount строка агрегата GROUP BY rating.
type RatingCount struct {
	Rating int `db:"rating"`
	Count  int `db:"count"`
}

// RatingBucket одна корзина распределения.
type RatingBucket struct {
	Rating     int     `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ReviewDistribution распределение оценок 5..1.
type ReviewDistribution struct {
	Total   int            `json:"total"`
	Buckets []RatingBucket `json:"buckets"`
}

// ReviewEligibility ответ на вопрос, можно ли оставить отзыв.
type ReviewEligibility struct {
	CanReview bool   `json:"can_review"`
	Reason    string `json:"reason,omitempty"`
}
