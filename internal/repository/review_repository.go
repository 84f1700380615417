package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/repository/common"
)

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateWithNotification создаёт отзыв и уведомление для админки в одной транзакции.
// Повторный отзыв участника на тот же заказ отсекается уникальным индексом.
func (r *ReviewRepository) CreateWithNotification(ctx context.Context, review *models.Review, notification *models.AdminNotification) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO reviews (order_id, reviewer_id, reviewed_id, rating, comment, review_type)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, review.OrderID, review.ReviewerID, review.ReviewedID, review.Rating, review.Comment, review.ReviewType).
			Scan(&review.ID, &review.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrDuplicateReview
			}
			return fmt.Errorf("review repository: create %w", err)
		}

		if notification == nil {
			return nil
		}
		return insertAdminNotification(ctx, tx, notification)
	})
}

// GetByOrderAndReviewer проверяет, оставлял ли пользователь отзыв на заказ.
func (r *ReviewRepository) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE order_id = $1 AND reviewer_id = $2`, orderID, reviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository: get by order %w", err)
	}
	return &review, nil
}

// ListByReviewedID возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByReviewedID(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE reviewed_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reviewedID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review repository: list %w", err)
	}
	return reviews, nil
}

// ListByOrderID возвращает отзывы по заказу.
func (r *ReviewRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Review, error) {
	reviews := []models.Review{}
	if err := r.db.SelectContext(ctx, &reviews, `SELECT * FROM reviews WHERE order_id = $1 ORDER BY created_at`, orderID); err != nil {
		return nil, fmt.Errorf("review repository: list by order %w", err)
	}
	return reviews, nil
}

// GetAverageRating возвращает средний рейтинг пользователя и число отзывов.
func (r *ReviewRepository) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	var result struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &result, `
		SELECT AVG(rating)::float8 AS avg, COUNT(*) AS count FROM reviews WHERE reviewed_id = $1
	`, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("review repository: average %w", err)
	}
	return result.Avg.Float64, result.Count, nil
}

// CountByRating возвращает количество отзывов о пользователе по каждой оценке.
func (r *ReviewRepository) CountByRating(ctx context.Context, userID uuid.UUID) ([]models.RatingCount, error) {
	counts := []models.RatingCount{}
	err := r.db.SelectContext(ctx, &counts, `
		SELECT rating, COUNT(*) AS count FROM reviews
		WHERE reviewed_id = $1
		GROUP BY rating
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("review repository: count by rating %w", err)
	}
	return counts, nil
}
