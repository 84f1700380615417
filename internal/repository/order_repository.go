package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/repository/common"
)

// OrderRepository отвечает за заказы, их позиции, журнал событий и выплаты по заказу.
// Все изменения статуса выполняются условным UPDATE в одной транзакции с записью события.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateWithItems сохраняет заказ, снимки позиций и событие создания.
func (r *OrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem, event models.OrderEvent) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO orders (order_number, buyer_id, seller_id, status, total_amount)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, payout_completed, created_at, updated_at
		`, order.OrderNumber, order.BuyerID, order.SellerID, order.Status, order.TotalAmount).
			Scan(&order.ID, &order.PayoutCompleted, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("order repository: insert order %w", err)
		}

		inserter := common.NewBatchInserter(tx, `
			INSERT INTO order_items (order_id, listing_id, pokemon_name, pokemon_data, price, quantity, seller_id, seller_snapshot)
		`, 8, 50)
		for i := range items {
			items[i].OrderID = order.ID
			it := items[i]
			if err := inserter.Add(ctx, it.OrderID, it.ListingID, it.PokemonName, it.PokemonData, it.Price, it.Quantity, it.SellerID, it.SellerSnapshot); err != nil {
				return fmt.Errorf("order repository: insert items %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("order repository: insert items %w", err)
		}

		event.OrderID = order.ID
		return insertEvent(ctx, tx, &event)
	})
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, r.db, "orders", id, ErrOrderNotFound)
}

// GetDetails возвращает заказ с позициями, журналом событий и выплатой.
func (r *OrderRepository) GetDetails(ctx context.Context, id uuid.UUID) (*models.OrderDetails, error) {
	order, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &models.OrderDetails{Order: *order, Items: []models.OrderItem{}, Events: []models.OrderEvent{}}

	if err := r.db.SelectContext(ctx, &details.Items, `SELECT * FROM order_items WHERE order_id = $1 ORDER BY pokemon_name`, id); err != nil {
		return nil, fmt.Errorf("order repository: get items %w", err)
	}
	if err := r.db.SelectContext(ctx, &details.Events, `SELECT * FROM order_events WHERE order_id = $1 ORDER BY created_at ASC`, id); err != nil {
		return nil, fmt.Errorf("order repository: get events %w", err)
	}

	payout, err := getOne[models.Payout](ctx, r.db, `SELECT * FROM payouts WHERE order_id = $1`, ErrPayoutNotFound, id)
	switch {
	case err == nil:
		details.Payout = payout
	case !errors.Is(err, ErrPayoutNotFound):
		return nil, fmt.Errorf("order repository: get payout %w", err)
	}

	return details, nil
}

// List возвращает заказы по фильтру, новые сначала.
func (r *OrderRepository) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.BuyerID != nil {
		add("buyer_id = $%d", *f.BuyerID)
	}
	if f.SellerID != nil {
		add("seller_id = $%d", *f.SellerID)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT * FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conds, " AND "), len(args)-1, len(args))

	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list %w", err)
	}
	return orders, nil
}

// TransitionStatus переводит заказ в статус to, только если текущий статус входит в from.
func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []valueobject.OrderStatus, to valueobject.OrderStatus, event models.OrderEvent) (*models.Order, error) {
	var order models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &order, `
			UPDATE orders SET
				status = $2::text,
				completed_at = CASE WHEN $2::text = 'completed' THEN NOW() ELSE completed_at END,
				updated_at = NOW()
			WHERE id = $1 AND status = ANY($3)
			RETURNING *
		`, orderID, string(to), pq.Array(statusStrings(from)))
		if err != nil {
			return missOrError(ctx, tx, orderID, err)
		}

		event.OrderID = orderID
		return insertEvent(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Complete завершает заказ из in_review, создаёт выплату и событие ORDER_COMPLETED.
// При любой ошибке ничего не записывается.
func (r *OrderRepository) Complete(ctx context.Context, orderID uuid.UUID, payout *models.Payout, event models.OrderEvent) (*models.Order, error) {
	var order models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &order, `
			UPDATE orders SET status = 'completed', completed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = 'in_review'
			RETURNING *
		`, orderID)
		if err != nil {
			return missOrError(ctx, tx, orderID, err)
		}

		payout.OrderID = orderID
		payout.SellerID = order.SellerID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payouts (order_id, seller_id, method, amount, reference, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, payout.OrderID, payout.SellerID, payout.Method, payout.Amount, payout.Reference, payout.Status).
			Scan(&payout.ID, &payout.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrPayoutExists
			}
			return fmt.Errorf("order repository: insert payout %w", err)
		}

		event.OrderID = orderID
		return insertEvent(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Cancel отменяет заказ из любого нетерминального статуса.
func (r *OrderRepository) Cancel(ctx context.Context, orderID uuid.UUID, reason string, event models.OrderEvent) (*models.Order, error) {
	var order models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &order, `
			UPDATE orders SET
				status = 'cancelled',
				cancelled_at = NOW(),
				cancellation_reason = $2,
				updated_at = NOW()
			WHERE id = $1 AND status = ANY($3)
			RETURNING *
		`, orderID, reason, pq.Array(statusStrings(valueobject.CancellableStatuses())))
		if err != nil {
			return missOrError(ctx, tx, orderID, err)
		}

		event.OrderID = orderID
		return insertEvent(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPayout отмечает выплату по завершённому заказу и закрывает строку payouts, если она есть.
func (r *OrderRepository) MarkPayout(ctx context.Context, orderID uuid.UUID, event models.OrderEvent) (*models.Order, error) {
	var order models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &order, `
			UPDATE orders SET payout_completed = TRUE, updated_at = NOW()
			WHERE id = $1 AND status = 'completed'
			RETURNING *
		`, orderID)
		if err != nil {
			return missOrError(ctx, tx, orderID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE payouts SET status = 'COMPLETED', completed_at = COALESCE(completed_at, NOW())
			WHERE order_id = $1
		`, orderID); err != nil {
			return fmt.Errorf("order repository: complete payout %w", err)
		}

		event.OrderID = orderID
		return insertEvent(ctx, tx, &event)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Delete удаляет заказ безвозвратно. Позиции, события и выплата удаляются каскадом.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("order repository: delete %w", err)
	}
	return expectAffected(res, ErrOrderNotFound)
}

// insertEvent добавляет запись в журнал заказа.
func insertEvent(ctx context.Context, q sqlx.QueryerContext, e *models.OrderEvent) error {
	if len(e.Payload) == 0 {
		e.Payload = models.JSONB("{}")
	}
	err := q.QueryRowxContext(ctx, `
		INSERT INTO order_events (order_id, actor_id, type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, e.OrderID, e.ActorID, e.Type, e.Payload).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("order repository: insert event %w", err)
	}
	return nil
}

// missOrError различает отсутствующий заказ и заказ в неподходящем статусе.
func missOrError(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID, err error) error {
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order repository: update status %w", err)
	}
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID); err != nil {
		return fmt.Errorf("order repository: check order %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrInvalidOrderStatus
}

func statusStrings(statuses []valueobject.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
