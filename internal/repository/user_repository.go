package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/repository/common"
)

// UserRepository отвечает за пользователей и их репутационные поля.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый экземпляр.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create вставляет пользователя и заполняет сгенерированные поля.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, seller_level, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.IsActive, &user.SellerLevel, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			if strings.Contains(common.ConstraintName(err), "username") {
				return ErrUsernameTaken
			}
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// GetByEmail возвращает пользователя по email без учёта регистра.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "email", strings.ToLower(strings.TrimSpace(email)), ErrUserNotFound)
}

// GetPublicProfile возвращает публичную часть профиля.
func (r *UserRepository) GetPublicProfile(ctx context.Context, id uuid.UUID) (*models.PublicProfile, error) {
	query := `
		SELECT id, username, reputation_score, total_sales, total_purchases, average_rating,
		       total_reviews, seller_level, verified_seller, created_at
		FROM users
		WHERE id = $1 AND is_active = TRUE
	`
	return getOne[models.PublicProfile](ctx, r.db, query, ErrUserNotFound, id)
}

// UpdateLastLoginAt фиксирует время входа.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	return err
}

// List возвращает пользователей для админки с поиском по email и username.
func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	users := []models.User{}
	query := `
		SELECT * FROM users
		WHERE ($1 = '' OR email ILIKE '%' || $1 || '%' OR username ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &users, query, strings.TrimSpace(search), limit, offset); err != nil {
		return nil, fmt.Errorf("user repository: list %w", err)
	}
	return users, nil
}

// SetActive блокирует или разблокирует пользователя.
func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("user repository: set active %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}

// GetReputationStats собирает агрегаты по отзывам и завершённым заказам пользователя.
func (r *UserRepository) GetReputationStats(ctx context.Context, id uuid.UUID) (*models.ReputationStats, error) {
	var stats models.ReputationStats
	query := `
		SELECT
			COALESCE((SELECT AVG(rating)::float8 FROM reviews WHERE reviewed_id = $1), 0) AS average_rating,
			(SELECT COUNT(*) FROM reviews WHERE reviewed_id = $1) AS total_reviews,
			(SELECT COUNT(*) FROM orders WHERE seller_id = $1 AND status = 'completed') AS completed_sales,
			(SELECT COUNT(*) FROM orders WHERE buyer_id = $1 AND status = 'completed') AS completed_buys
	`
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return nil, fmt.Errorf("user repository: reputation stats %w", err)
	}
	return &stats, nil
}

// UpdateReputation записывает пересчитанные поля.
func (r *UserRepository) UpdateReputation(ctx context.Context, id uuid.UUID, rep models.Reputation) error {
	query := `
		UPDATE users SET
			reputation_score = $2,
			total_sales = $3,
			total_purchases = $4,
			average_rating = $5,
			total_reviews = $6,
			seller_level = $7,
			verified_seller = $8,
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, rep.ReputationScore, rep.TotalSales, rep.TotalPurchases,
		rep.AverageRating, rep.TotalReviews, rep.SellerLevel, rep.VerifiedSeller)
	if err != nil {
		return fmt.Errorf("user repository: update reputation %w", err)
	}
	return expectAffected(res, ErrUserNotFound)
}
