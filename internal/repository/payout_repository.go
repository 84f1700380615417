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

// PayoutRepository очередь выплат продавцам.
type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// GetByID возвращает выплату.
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return common.GetByID[models.Payout](ctx, r.db, "payouts", id, ErrPayoutNotFound)
}

// List возвращает выплаты, опционально по статусу. Старые первыми, чтобы очередь разбиралась по порядку.
func (r *PayoutRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	payouts := []models.Payout{}
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payout repository: list %w", err)
	}
	return payouts, nil
}

// ListBySeller возвращает выплаты продавца.
func (r *PayoutRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	payouts := []models.Payout{}
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts WHERE seller_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, sellerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("payout repository: list by seller %w", err)
	}
	return payouts, nil
}

// MarkCompleted закрывает выплату, помечает заказ и пишет событие PAYOUT_MARKED.
func (r *PayoutRepository) MarkCompleted(ctx context.Context, id uuid.UUID, event models.OrderEvent) (*models.Payout, error) {
	var payout models.Payout
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &payout, `
			UPDATE payouts SET status = 'COMPLETED', completed_at = NOW()
			WHERE id = $1 AND status = 'PENDING'
			RETURNING *
		`, id)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("payout repository: complete %w", err)
			}
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM payouts WHERE id = $1)`, id); err != nil {
				return fmt.Errorf("payout repository: check payout %w", err)
			}
			if !exists {
				return ErrPayoutNotFound
			}
			return ErrPayoutCompleted
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET payout_completed = TRUE, updated_at = NOW() WHERE id = $1
		`, payout.OrderID); err != nil {
			return fmt.Errorf("payout repository: mark order %w", err)
		}

		event.OrderID = payout.OrderID
		return insertEvent(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &payout, nil
}
