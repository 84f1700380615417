package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Уровни продавца по количеству завершённых продаж.
const (
	SellerLevelBronze   = "bronze"
	SellerLevelSilver   = "silver"
	SellerLevelGold     = "gold"
	SellerLevelPlatinum = "platinum"
	SellerLevelDiamond  = "diamond"
)

// User описывает участника площадки вместе с производными полями репутации.
type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	Username        string     `db:"username" json:"username"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	Role            string     `db:"role" json:"role"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	ReputationScore int        `db:"reputation_score" json:"reputation_score"`
	TotalSales      int        `db:"total_sales" json:"total_sales"`
	TotalPurchases  int        `db:"total_purchases" json:"total_purchases"`
	AverageRating   float64    `db:"average_rating" json:"average_rating"`
	TotalReviews    int        `db:"total_reviews" json:"total_reviews"`
	SellerLevel     string     `db:"seller_level" json:"seller_level"`
	VerifiedSeller  bool       `db:"verified_seller" json:"verified_seller"`
	LastLoginAt     *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// IsAdmin сообщает, что пользователь администратор.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// PublicProfile то, что видно другим пользователям.
type PublicProfile struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Username        string    `db:"username" json:"username"`
	ReputationScore int       `db:"reputation_score" json:"reputation_score"`
	TotalSales      int       `db:"total_sales" json:"total_sales"`
	TotalPurchases  int       `db:"total_purchases" json:"total_purchases"`
	AverageRating   float64   `db:"average_rating" json:"average_rating"`
	TotalReviews    int       `db:"total_reviews" json:"total_reviews"`
	SellerLevel     string    `db:"seller_level" json:"seller_level"`
	VerifiedSeller  bool      `db:"verified_seller" json:"verified_seller"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ReputationStats исходные агрегаты для пересчёта репутации.
type ReputationStats struct {
	AverageRating  float64 `db:"average_rating"`
	TotalReviews   int     `db:"total_reviews"`
	CompletedSales int     `db:"completed_sales"`
	CompletedBuys  int     `db:"completed_buys"`
}

// Reputation производные поля пользователя.
type Reputation struct {
	ReputationScore int     `db:"reputation_score" json:"reputation_score"`
	TotalSales      int     `db:"total_sales" json:"total_sales"`
	TotalPurchases  int     `db:"total_purchases" json:"total_purchases"`
	AverageRating   float64 `db:"average_rating" json:"average_rating"`
	TotalReviews    int     `db:"total_reviews" json:"total_reviews"`
	SellerLevel     string  `db:"seller_level" json:"seller_level"`
	VerifiedSeller  bool    `db:"verified_seller" json:"verified_seller"`
}
